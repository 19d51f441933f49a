package models

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto converts to protobuf for internal serialization/caching
func (e Entry) ToProto() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(e.ID),
		"name":     structpb.NewStringValue(e.Name),
		"message":  structpb.NewStringValue(e.Message),
		"date":     structpb.NewStringValue(e.Date),
		"oc":       structpb.NewStringValue(Deref(e.OC)),
		"reply_to": structpb.NewStringValue(Deref(e.ReplyTo)),
	}}
}

// EntryFromProto converts from protobuf back to model
func EntryFromProto(pb *structpb.Struct) Entry {
	f := pb.GetFields()
	return Entry{
		ID:      f["id"].GetStringValue(),
		Name:    f["name"].GetStringValue(),
		Message: f["message"].GetStringValue(),
		Date:    f["date"].GetStringValue(),
		OC:      Optional(f["oc"].GetStringValue()),
		ReplyTo: Optional(f["reply_to"].GetStringValue()),
	}
}

// EntriesToProto packs a whole snapshot, preserving order.
func EntriesToProto(entries []Entry) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(entries))}
	for _, e := range entries {
		list.Values = append(list.Values, structpb.NewStructValue(e.ToProto()))
	}
	return list
}

func EntriesFromProto(list *structpb.ListValue) []Entry {
	out := make([]Entry, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, EntryFromProto(v.GetStructValue()))
	}
	return out
}
