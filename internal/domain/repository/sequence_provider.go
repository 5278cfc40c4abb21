package repository

import "context"

// SequenceProvider entrega el siguiente consecutivo (monótono, sin huecos) para un prefijo.
type SequenceProvider interface {
	Next(ctx context.Context, prefix string) (int64, error)
}
