package spellcheck

import "context"

// TermVectorsClient reads term statistics of an artificial document from the engine.
type TermVectorsClient interface {
	TermVectors(ctx context.Context, index string, body []byte) ([]byte, error)
}
