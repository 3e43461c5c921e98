package models

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Symbol string `json:"symbol" validate:"required,max=16"`
	Months int    `json:"months" default:"6" validate:"gte=1,lte=60"`
}
