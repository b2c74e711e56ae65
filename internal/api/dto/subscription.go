package dto

// SubscribeRequest purchases a paid plan
type SubscribeRequest struct {
	Tier    string `json:"tier" validate:"required,oneof=premium family lifetime"`
	Periods int    `json:"periods,omitempty" validate:"omitempty,min=1,max=24"`
}
