package service

import (
	"context"
	"encoding/json"
)

// Number of drawings per history chunk
const ChunkSize = 100

type DrawingChunk struct {
	Data     []json.RawMessage
	HasNext  bool
	NextPage int
}

// GetDrawingChunk returns one page of the drawing history in submission
// order. Pages are numbered from 1; NextPage is only meaningful when
// HasNext is true.
func (s *Service) GetDrawingChunk(ctx context.Context, page int) (DrawingChunk, error) {
	if page < 1 {
		page = 1
	}

	drawings, hasNext, err := s.Store.GetDrawingsPage(ctx, page, ChunkSize)
	if err != nil {
		return DrawingChunk{}, err
	}

	data := make([]json.RawMessage, 0, len(drawings))
	for _, d := range drawings {
		data = append(data, json.RawMessage(d.Data))
	}

	chunk := DrawingChunk{Data: data, HasNext: hasNext}
	if hasNext {
		chunk.NextPage = page + 1
	}
	return chunk, nil
}
