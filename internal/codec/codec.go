// Package codec définit les schémas figés (et versionnés) des snapshots stockés dans Redis.
//
// Chaque valeur commence par un octet de version suivi de champs protobuf encodés à la main
// avec protowire: pas de réflexion, et un champ inconnu est ignoré au décodage ce qui permet
// d'ajouter des champs sans invalider le cache existant.
package codec

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

const schemaV1 byte = 1

var (
	ErrUnknownVersion = errors.New("codec: unknown schema version")
	ErrEmptyPayload   = errors.New("codec: empty payload")
)

// Codec (dé)sérialise un type du domaine vers sa forme cache.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(t.UnixNano()))
}

// fieldFunc reçoit un champ connu; il renvoie le nombre d'octets consommés (ou < 0).
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

func header(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if data[0] != schemaV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, data[0])
	}
	return data[1:], nil
}

func walk(b []byte, field fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("codec: tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		m := field(num, typ, b)
		if m == 0 {
			// Champ inconnu (version plus récente): on le saute
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("codec: field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeTime(typ protowire.Type, b []byte, dst *time.Time) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
	}
	return n
}
