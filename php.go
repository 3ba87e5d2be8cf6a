package restful

import (
	"bytes"

	"github.com/bjaus/restful/phpserial"
)

// PHPObjectRenderer renders data for application/php-serialized responses.
// The data is first cast to an object the way PHP's (object) does, so the
// body always unserializes to an object, never an array or scalar.
//
// The format is only understood by PHP's unserialize() or a compatible
// decoder such as phpserial.Unmarshal.
type PHPObjectRenderer struct{}

// ContentType returns application/php-serialized.
func (PHPObjectRenderer) ContentType() string { return MIMEPHPSerialized }

// Render casts data to an object and serializes it. Values with no PHP
// representation fail with an error wrapping phpserial.ErrEncoding.
func (PHPObjectRenderer) Render(data any) ([]byte, error) {
	obj, err := phpserial.ToObject(data)
	if err != nil {
		return nil, err
	}
	return phpserial.Marshal(obj)
}

// ParsePHP decodes a PHP-serialized body. Objects decode to
// *phpserial.Object; classes are never instantiated.
func ParsePHP(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return phpserial.Unmarshal(raw)
}
