package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"coursehub/internal/util"

	"github.com/danielgtaylor/huma/v2"
)

// UUIDPathParams answers 400 when one of the named path parameters of the
// matched operation is not a UUID, so malformed IDs never reach the database.
func UUIDPathParams(api huma.API, names ...string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op != nil {
			for _, name := range names {
				if !strings.Contains(op.Path, "{"+name+"}") {
					continue
				}
				if v := ctx.Param(name); !util.IsUUID(v) {
					_ = huma.WriteErr(api, ctx, http.StatusBadRequest,
						fmt.Sprintf("%s must be a UUID", name),
						&huma.ErrorDetail{Location: "path." + name, Value: v, Message: "expected a UUID"})
					return
				}
			}
		}
		next(ctx)
	}
}
