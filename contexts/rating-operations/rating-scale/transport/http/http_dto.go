package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ClassifyRequest struct {
	PreviousRating string `json:"previous_rating,omitempty"`
	CurrentRating  string `json:"current_rating"`
}

type ClassifyResponse struct {
	PreviousRating string `json:"previous_rating,omitempty"`
	CurrentRating  string `json:"current_rating"`
	RatingAction   string `json:"rating_action"`
}
