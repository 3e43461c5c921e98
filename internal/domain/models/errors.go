package models

import "errors"

var (
	ErrNoData         = errors.New("no price data")
	ErrUnknownSymbol  = errors.New("unknown symbol")
	ErrProviderFailed = errors.New("price provider failed")
)
