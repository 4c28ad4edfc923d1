package dto

type CreateRoteRequest struct {
	Title     string   `json:"title" validate:"max=200"`
	Content   string   `json:"content" validate:"required"`
	Type      string   `json:"type" validate:"omitempty,oneof=rote article"`
	Tags      []string `json:"tags" validate:"max=30,dive,max=50"`
	State     string   `json:"state" validate:"omitempty,oneof=private public"`
	Editor    string   `json:"editor" validate:"omitempty,oneof=normal rich"`
	Pin       bool     `json:"pin"`
	ArticleID *string  `json:"articleId" validate:"omitempty,uuid"`
	// AttachmentIDs are bound to the new note in the same operation.
	AttachmentIDs []string `json:"attachment_ids" validate:"max=9,dive,uuid"`
}

// UpdateRoteRequest is a PATCH: nil fields are left untouched.
type UpdateRoteRequest struct {
	Title     *string   `json:"title" validate:"omitempty,max=200"`
	Content   *string   `json:"content" validate:"omitempty,min=1"`
	Tags      *[]string `json:"tags" validate:"omitempty,max=30,dive,max=50"`
	State     *string   `json:"state" validate:"omitempty,oneof=private public"`
	Editor    *string   `json:"editor" validate:"omitempty,oneof=normal rich"`
	Archived  *bool     `json:"archived"`
	Pin       *bool     `json:"pin"`
	ArticleID *string   `json:"articleId" validate:"omitempty,uuid"`
}

type BindAttachmentsRequest struct {
	AttachmentIDs []string `json:"attachment_ids" validate:"required,min=1,max=9,dive,uuid"`
}

type ReorderAttachmentsRequest struct {
	AttachmentIDs []string `json:"attachment_ids" validate:"required,min=1,dive,uuid"`
}

type CreateAttachmentRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type ReactionRequest struct {
	Type string `json:"type" validate:"required,max=32"`
}
