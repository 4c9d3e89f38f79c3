package book

type CreateBookReq struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
	Copies      int64  `json:"copies" validate:"required,gt=0"`
}

type UpdateBookReq struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
}

type ResizeReq struct {
	TotalCopies int64 `json:"total_copies" validate:"gte=0"`
}
