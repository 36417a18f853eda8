package cli

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/fatih/color"

	"github.com/cbcsl/cbcsl/internal/core/api"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
	"github.com/cbcsl/cbcsl/internal/core/player"
	"github.com/cbcsl/cbcsl/internal/core/playlist"
	"github.com/cbcsl/cbcsl/internal/core/proxy"
)

// hint returns a suggestion for the error classes users can act on.
func hint(err error) string {
	var (
		upstream *api.UpstreamError
		schema   *api.SchemaError
	)
	switch {
	case errors.Is(err, identifier.ErrInvalid):
		return "Pass a numeric media ID or a https://www.cbc.ca/player/play/... URL."
	case errors.As(err, &upstream):
		return "CBC refused the request. Most content is geo-blocked outside Canada: try --proxy with a Canadian endpoint."
	case errors.As(err, &schema):
		return "The CBC API answered with something unexpected and may have changed. Try another --backend."
	case errors.Is(err, playlist.ErrNoVariants):
		return "The stream is not a master playlist. Try again without --pin-variant."
	case errors.Is(err, proxy.ErrUnsupportedScheme):
		return "API requests support socks5, http and https proxies."
	case errors.Is(err, exec.ErrNotFound):
		return "Install streamlink (https://streamlink.github.io/install.html) or set the player path with 'cbcsl config set player PATH'."
	}
	return ""
}

// PrintError writes err and its hint, if any, to w.
func PrintError(w io.Writer, err error) {
	var procErr *player.ProcessError
	if errors.As(err, &procErr) && procErr.ExitCode > 0 {
		// streamlink already explained itself
		return
	}

	fmt.Fprintln(w, color.RedString("Error: %v", err))
	if h := hint(err); h != "" {
		fmt.Fprintln(w, color.YellowString("Hint: %s", h))
	}
}

// ExitCode maps err to the process exit status: the player's own status
// when it failed, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var procErr *player.ProcessError
	if errors.As(err, &procErr) && procErr.ExitCode > 0 {
		return procErr.ExitCode
	}
	return 1
}
