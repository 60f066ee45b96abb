package feature

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MarshalValue converts v to its DynamoDB attribute form. Numbers are written as
// decimal strings; NaN and infinities are rejected.
func MarshalValue(v Value) (types.AttributeValue, error) {
	return marshalValue(v, "", 0)
}

func marshalValue(v Value, path string, depth int) (types.AttributeValue, error) {
	if depth > maxDepth {
		return nil, &MarshalError{Path: path, Reason: "nesting exceeds 32 levels"}
	}
	switch v.kind {
	case KindNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case KindString:
		return &types.AttributeValueMemberS{Value: v.s}, nil
	case KindBool:
		return &types.AttributeValueMemberBOOL{Value: v.b}, nil
	case KindNumber:
		n, err := formatNumber(v.n)
		if err != nil {
			return nil, &MarshalError{Path: path, Reason: err.Error()}
		}
		return &types.AttributeValueMemberN{Value: n}, nil
	case KindMap:
		m := make(map[string]types.AttributeValue, len(v.m))
		for k, item := range v.m {
			av, err := marshalValue(item, joinPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case KindList:
		l := make([]types.AttributeValue, len(v.l))
		for i, item := range v.l {
			av, err := marshalValue(item, indexPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, &MarshalError{Path: path, Reason: fmt.Sprintf("unknown value kind %d", v.kind)}
}

// formatNumber renders f as the shortest decimal that parses back to f.
func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("number %v is not representable", f)
	}
	if a := math.Abs(f); a != 0 && (a >= 1e21 || a < 1e-7) {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// UnmarshalValue converts a stored attribute back to a Value. String and number sets
// decode as lists; binary attributes are rejected.
func UnmarshalValue(av types.AttributeValue) (Value, error) {
	return unmarshalValue(av, "", 0)
}

func unmarshalValue(av types.AttributeValue, path string, depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, &MarshalError{Decode: true, Path: path, Reason: "nesting exceeds 32 levels"}
	}
	switch t := av.(type) {
	case nil:
		return NullValue(), nil
	case *types.AttributeValueMemberNULL:
		return NullValue(), nil
	case *types.AttributeValueMemberS:
		return StringValue(t.Value), nil
	case *types.AttributeValueMemberBOOL:
		return BoolValue(t.Value), nil
	case *types.AttributeValueMemberN:
		f, err := parseNumber(t.Value)
		if err != nil {
			return Value{}, &MarshalError{Decode: true, Path: path, Reason: err.Error()}
		}
		return NumberValue(f), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]Value, len(t.Value))
		for k, item := range t.Value {
			v, err := unmarshalValue(item, joinPath(path, k), depth+1)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return MapValue(m), nil
	case *types.AttributeValueMemberL:
		l := make([]Value, len(t.Value))
		for i, item := range t.Value {
			v, err := unmarshalValue(item, indexPath(path, i), depth+1)
			if err != nil {
				return Value{}, err
			}
			l[i] = v
		}
		return ListValue(l...), nil
	case *types.AttributeValueMemberSS:
		l := make([]Value, len(t.Value))
		for i, s := range t.Value {
			l[i] = StringValue(s)
		}
		return ListValue(l...), nil
	case *types.AttributeValueMemberNS:
		l := make([]Value, len(t.Value))
		for i, s := range t.Value {
			f, err := parseNumber(s)
			if err != nil {
				return Value{}, &MarshalError{Decode: true, Path: indexPath(path, i), Reason: err.Error()}
			}
			l[i] = NumberValue(f)
		}
		return ListValue(l...), nil
	case *types.AttributeValueMemberB, *types.AttributeValueMemberBS:
		return Value{}, &MarshalError{Decode: true, Path: path, Reason: "binary attributes are not supported"}
	}
	return Value{}, &MarshalError{Decode: true, Path: path, Reason: fmt.Sprintf("unsupported attribute %T", av)}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, err)
	}
	return f, nil
}

// MarshalData converts a feature map to a DynamoDB map attribute value.
func MarshalData(d Data) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(d))
	for name, v := range d {
		av, err := marshalValue(v, name, 1)
		if err != nil {
			return nil, err
		}
		out[name] = av
	}
	return out, nil
}

// UnmarshalData converts a stored feature map back to Data.
func UnmarshalData(m map[string]types.AttributeValue) (Data, error) {
	out := make(Data, len(m))
	for name, av := range m {
		v, err := unmarshalValue(av, name, 1)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
