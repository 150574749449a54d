package cli

import (
	"errors"

	"github.com/dmitrijs2005/notex/internal/client/client"
)

// describe turns gateway errors into messages for the prompt.
func describe(err error) string {
	var re *client.RemoteError
	switch {
	case errors.As(err, &re):
		return re.Message
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, this needs a connection"
	case errors.Is(err, client.ErrNotAuthenticated):
		return "not logged in"
	}
	return err.Error()
}
