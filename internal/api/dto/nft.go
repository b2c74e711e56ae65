package dto

// CreateNftRequest creates an unminted NFT
type CreateNftRequest struct {
	Emotion string `json:"emotion" validate:"required,max=40"`
	Rarity  string `json:"rarity,omitempty" validate:"omitempty,oneof=common rare epic legendary"`
}
