package enginedto

// MoveRequest is the wire contract consumed from the web GUI. Absent fields
// take the documented defaults; numeric fields are clamped by the HTTP layer
// before reaching the engine session.
type MoveRequest struct {
	Moves      string `json:"moves"`
	FEN        string `json:"fen"`
	Difficulty int    `json:"difficulty"`
	TimeMillis int    `json:"time_ms"`
	Depth      int    `json:"depth"`
}

type MoveResponse struct {
	BestMove string `json:"bestmove"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
