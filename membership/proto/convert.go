package proto

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of a member entry in the Members response.
const (
	FieldSiloID       = "silo_id"
	FieldAddress      = "address"
	FieldStatus       = "status"
	FieldStartTime    = "start_time"
	FieldIAmAliveTime = "i_am_alive_time"
	FieldVersion      = "version"
)

// Member is the wire representation of a membership row.
type Member struct {
	SiloID       string
	Address      string
	Status       string
	StartTime    time.Time
	IAmAliveTime time.Time
	Version      uint64
}

func ToStruct(m Member) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldSiloID:       m.SiloID,
		FieldAddress:      m.Address,
		FieldStatus:       m.Status,
		FieldStartTime:    m.StartTime.UTC().Format(time.RFC3339Nano),
		FieldIAmAliveTime: m.IAmAliveTime.UTC().Format(time.RFC3339Nano),
		// Versions stay far below 2^53, so a double is exact.
		FieldVersion: float64(m.Version),
	})
}

func FromStruct(s *structpb.Struct) (Member, error) {
	fields := s.GetFields()

	str := func(name string) (string, error) {
		v, ok := fields[name]
		if !ok {
			return "", fmt.Errorf("missing field %q", name)
		}

		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", fmt.Errorf("field %q is not a string", name)
		}

		return sv.StringValue, nil
	}

	tm := func(name string) (time.Time, error) {
		v, err := str(name)
		if err != nil {
			return time.Time{}, err
		}

		return time.Parse(time.RFC3339Nano, v)
	}

	var (
		m   Member
		err error
	)

	if m.SiloID, err = str(FieldSiloID); err != nil {
		return Member{}, err
	}

	if m.Address, err = str(FieldAddress); err != nil {
		return Member{}, err
	}

	if m.Status, err = str(FieldStatus); err != nil {
		return Member{}, err
	}

	if m.StartTime, err = tm(FieldStartTime); err != nil {
		return Member{}, err
	}

	if m.IAmAliveTime, err = tm(FieldIAmAliveTime); err != nil {
		return Member{}, err
	}

	if v, ok := fields[FieldVersion].GetKind().(*structpb.Value_NumberValue); ok {
		m.Version = uint64(v.NumberValue)
	}

	return m, nil
}

func ToListValue(members []Member) (*structpb.ListValue, error) {
	list := &structpb.ListValue{
		Values: make([]*structpb.Value, len(members)),
	}

	for idx, m := range members {
		s, err := ToStruct(m)
		if err != nil {
			return nil, err
		}

		list.Values[idx] = structpb.NewStructValue(s)
	}

	return list, nil
}

func FromListValue(list *structpb.ListValue) ([]Member, error) {
	members := make([]Member, len(list.GetValues()))

	for idx, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("entry %d is not a struct", idx)
		}

		m, err := FromStruct(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", idx, err)
		}

		members[idx] = m
	}

	return members, nil
}
