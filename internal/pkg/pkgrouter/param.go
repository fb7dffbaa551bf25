package pkgrouter

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// GetParam reads a path parameter stored by httprouter.
func GetParam(ctx context.Context, key string) string {
	return httprouter.ParamsFromContext(ctx).ByName(key)
}

// RoutePattern is the registered pattern of the matched route, for example
// "/datasets/:id", or the raw path when nothing matched.
func RoutePattern(r *http.Request) string {
	return matchedRoutePath(r)
}
