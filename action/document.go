package action

import (
	"context"

	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(DocumentHandler)

type DocumentHandler struct {
	creator DocumentCreator
}

func NewDocumentHandler(creator DocumentCreator) *DocumentHandler {
	return &DocumentHandler{creator: creator}
}

func (h *DocumentHandler) Kind() model.ActionKind {
	return model.ACTION_CREATE_DOCUMENT
}

func (h *DocumentHandler) Validate(params map[string]any) error {
	for _, name := range []string{"title", "workspaceId"} {
		if _, err := requireString(params, name); err != nil {
			return err
		}
	}
	for _, name := range []string{"content", "createdBy"} {
		if _, err := optionalString(params, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *DocumentHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	doc := Document{}
	doc.Title, _ = requireString(params, "title")
	doc.WorkspaceId, _ = requireString(params, "workspaceId")
	doc.Content, _ = optionalString(params, "content")
	doc.CreatedBy, _ = optionalString(params, "createdBy")
	id, err := h.creator.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	return map[string]any{"documentId": id, "title": doc.Title}, nil
}
