package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries caller attribution recorded on audit rows.
type RequestData struct {
	ClientIP  string
	UserAgent string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
