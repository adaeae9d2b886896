package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Sans stubs protoc, les messages du FeedService voyagent en JSON
// (content-type application/grpc+json). Le health check reste en proto.
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
