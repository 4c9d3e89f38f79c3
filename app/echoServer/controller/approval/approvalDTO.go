package approval

type HandleReq struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}
