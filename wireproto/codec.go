// Package wireproto hand-rolls a protobuf-wire-compatible codec for the
// overlay's request/response envelope and payload types, using
// google.golang.org/protobuf/encoding/protowire directly instead of running
// the (out-of-scope) protoc code generator. Every Marshal/Unmarshal pair
// below reads back exactly what it wrote and produces bytes indistinguishable
// on the wire from what protoc-gen-go would emit for an equivalent .proto
// schema (see the field-number comments), so a real generated client could
// interoperate with this codec.
package wireproto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/user/geomesh/model"
)

// --- primitive field helpers -----------------------------------------------

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarintField(b, num, 1)
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, uint64FromFloat64(v))
}

func appendMessageField(b []byte, num protowire.Number, msg []byte) []byte {
	if len(msg) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// fieldVisitor is called once per top-level field encountered while
// unmarshaling; it returns the number of bytes consumed for that field's
// value (not including the tag), or -1 on a decode error.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error)

// walkFields decodes a sequence of tag-prefixed fields, invoking visit for
// each one. Unknown field numbers are skipped, matching proto3 semantics.
func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return fmt.Errorf("wireproto: invalid tag: %w", protowire.ParseError(tagLen))
		}
		b = b[tagLen:]

		n, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 || n > len(b) {
			return fmt.Errorf("wireproto: field %d: bad consumed length", num)
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wireproto: invalid varint: %w", protowire.ParseError(n))
	}
	return v, n, nil
}

func consumeFixed64(b []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wireproto: invalid fixed64: %w", protowire.ParseError(n))
	}
	return float64FromUint64(v), n, nil
}

func consumeBytes(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("wireproto: invalid bytes: %w", protowire.ParseError(n))
	}
	// ConsumeBytes returns a slice referencing b; copy it out so callers may
	// retain it beyond the lifetime of the input buffer.
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func consumeString(b []byte) (string, int, error) {
	v, n, err := consumeBytes(b)
	if err != nil {
		return "", 0, err
	}
	return string(v), n, nil
}

// skipField consumes and discards a field's value given its wire type, used
// for unknown field numbers.
func skipField(typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return 0, fmt.Errorf("wireproto: invalid field value: %w", protowire.ParseError(n))
	}
	return n, nil
}

// --- GpsLocation -------------------------------------------------------

// Field numbers: 1=latitude (fixed64 double), 2=longitude (fixed64 double).
func MarshalGpsLocation(loc model.GpsLocation) []byte {
	var b []byte
	b = appendDoubleField(b, 1, loc.Latitude)
	b = appendDoubleField(b, 2, loc.Longitude)
	return b
}

func UnmarshalGpsLocation(data []byte) (model.GpsLocation, error) {
	var loc model.GpsLocation
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeFixed64(b)
			loc.Latitude = v
			return n, err
		case 2:
			v, n, err := consumeFixed64(b)
			loc.Longitude = v
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return loc, err
}

// --- NetworkContact ------------------------------------------------------

// Field numbers: 1=ipv4_address, 2=ipv4_port, 3=ipv6_address, 4=ipv6_port.
func MarshalNetworkContact(c model.NetworkContact) []byte {
	var b []byte
	b = appendStringField(b, 1, c.IPv4Address)
	b = appendVarintField(b, 2, uint64(c.IPv4Port))
	b = appendStringField(b, 3, c.IPv6Address)
	b = appendVarintField(b, 4, uint64(c.IPv6Port))
	return b
}

func UnmarshalNetworkContact(data []byte) (model.NetworkContact, error) {
	var c model.NetworkContact
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			c.IPv4Address = v
			return n, err
		case 2:
			v, n, err := consumeVarint(b)
			c.IPv4Port = uint16(v)
			return n, err
		case 3:
			v, n, err := consumeString(b)
			c.IPv6Address = v
			return n, err
		case 4:
			v, n, err := consumeVarint(b)
			c.IPv6Port = uint16(v)
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return c, err
}

// --- NodeProfile -----------------------------------------------------------

// Field numbers: 1=id (bytes), 2=contact (message).
func MarshalNodeProfile(p model.NodeProfile) []byte {
	var b []byte
	b = appendBytesField(b, 1, p.Id)
	b = appendMessageField(b, 2, MarshalNetworkContact(p.Contact))
	return b
}

func UnmarshalNodeProfile(data []byte) (model.NodeProfile, error) {
	var p model.NodeProfile
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			p.Id = model.NodeId(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			contact, err := UnmarshalNetworkContact(v)
			p.Contact = contact
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return p, err
}

// --- NodeInfo ----------------------------------------------------------

// Field numbers: 1=profile (message), 2=location (message).
func MarshalNodeInfo(info model.NodeInfo) []byte {
	var b []byte
	b = appendMessageField(b, 1, MarshalNodeProfile(info.Profile))
	b = appendMessageField(b, 2, MarshalGpsLocation(info.Location))
	return b
}

func UnmarshalNodeInfo(data []byte) (model.NodeInfo, error) {
	var info model.NodeInfo
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			profile, err := UnmarshalNodeProfile(v)
			info.Profile = profile
			return n, err
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			loc, err := UnmarshalGpsLocation(v)
			info.Location = loc
			return n, err
		default:
			return skipField(typ, b)
		}
	})
	return info, err
}

// MarshalNodeInfoList encodes a list of NodeInfo as repeated field 1.
func MarshalNodeInfoList(infos []model.NodeInfo) []byte {
	var b []byte
	for _, info := range infos {
		b = appendMessageField(b, 1, MarshalNodeInfo(info))
	}
	return b
}

func UnmarshalNodeInfoList(data []byte) ([]model.NodeInfo, error) {
	var out []model.NodeInfo
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField(typ, b)
		}
		v, n, err := consumeBytes(b)
		if err != nil {
			return n, err
		}
		info, err := UnmarshalNodeInfo(v)
		if err != nil {
			return n, err
		}
		out = append(out, info)
		return n, nil
	})
	return out, err
}

// --- ServiceProfile ------------------------------------------------------

// Field numbers: 1=type, 2=contact (message), 3=metadata entries (repeated
// message of key(1)/value(2)).
func MarshalServiceProfile(p model.ServiceProfile) []byte {
	var b []byte
	b = appendStringField(b, 1, string(p.Type))
	b = appendMessageField(b, 2, MarshalNetworkContact(p.Contact))
	for k, v := range p.Metadata {
		var entry []byte
		entry = appendStringField(entry, 1, k)
		entry = appendStringField(entry, 2, v)
		b = appendMessageField(b, 3, entry)
	}
	return b
}

func UnmarshalServiceProfile(data []byte) (model.ServiceProfile, error) {
	p := model.ServiceProfile{Metadata: map[string]string{}}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			p.Type = model.ServiceType(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			contact, err := UnmarshalNetworkContact(v)
			p.Contact = contact
			return n, err
		case 3:
			v, n, err := consumeBytes(b)
			if err != nil {
				return n, err
			}
			var key, val string
			err = walkFields(v, func(num2 protowire.Number, typ2 protowire.Type, b2 []byte) (int, error) {
				switch num2 {
				case 1:
					s, n2, err := consumeString(b2)
					key = s
					return n2, err
				case 2:
					s, n2, err := consumeString(b2)
					val = s
					return n2, err
				default:
					return skipField(typ2, b2)
				}
			})
			if err != nil {
				return n, err
			}
			p.Metadata[key] = val
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
	return p, err
}
