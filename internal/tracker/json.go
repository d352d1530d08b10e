package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// ExecJSON runs the tracker binary and decodes its stdout into T. The --json
// flag is appended when the caller omitted it. Undecodable output fails with
// ErrParse.
func ExecJSON[T any](ctx context.Context, r *Runner, args ...string) (T, error) {
	var out T

	if !slices.Contains(args, "--json") {
		args = append(args, "--json")
	}

	res, err := r.Exec(ctx, args...)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return out, nil
}
