package packets

// body for registering
type SignupRequest struct {
	Username   string `json:"username" binding:"required,min=2"`
	Password   string `json:"password" binding:"required,min=8"`
	Instrument string `json:"instrument"`
}

// body for logging in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateCurrentProfileRequest struct {
	Instrument string `json:"instrument"`
}
