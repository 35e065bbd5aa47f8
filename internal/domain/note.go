package domain

import "time"

type Note struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Tags      []string  `json:"tags" bson:"tags"`
	IsPinned  bool      `json:"isPinned" bson:"is_pinned"`
	UserID    string    `json:"userId" bson:"user_id"`
	CreatedAt time.Time `json:"createdOn" bson:"created_on"`
}

// EnsureTags replaces a nil tag list with an empty one so notes always
// serialize tags as an array.
func (n *Note) EnsureTags() {
	if n.Tags == nil {
		n.Tags = []string{}
	}
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
}

// UpdateNoteRequest uses pointers so that an absent field can be told apart
// from a present zero value.
type UpdateNoteRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	IsPinned *bool     `json:"isPinned"`
}

type SetPinnedRequest struct {
	IsPinned *bool `json:"isPinned" validate:"required"`
}

type NoteEvent string

const (
	NoteCreated NoteEvent = "note_created"
	NoteUpdated NoteEvent = "note_updated"
	NotePinned  NoteEvent = "note_pinned"
	NoteDeleted NoteEvent = "note_deleted"
)
