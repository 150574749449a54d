package client

import (
	"context"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

// Client is the remote notes service as seen by the client.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.User, error)
	Signup(ctx context.Context, creds models.Credentials) (*models.User, error)
	Me(ctx context.Context) (*models.User, error)

	ListNotes(ctx context.Context, authorID string) ([]models.Note, error)
	CreateNote(ctx context.Context, draft models.NoteDraft) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ShareNote(ctx context.Context, id, username string) error
	UnlockNote(ctx context.Context, id, password string) (bool, error)

	SearchUsers(ctx context.Context, query, currentUserID string) ([]models.UserSummary, error)
	UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
}
