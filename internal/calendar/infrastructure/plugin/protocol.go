// Package plugin runs calendar sources as out-of-process go-plugin binaries.
// Host and plugin talk gRPC through a small hand-written service whose
// messages are structpb.Struct values.
package plugin

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// HandshakeConfig is shared by the host and every calendar plugin.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CADENCE_CALENDAR_PLUGIN",
	MagicCookieValue: "cadence-calendar-v1",
}

// Name is the key the calendar plugin is dispensed under.
const Name = "calendar"

const (
	serviceName      = "cadence.calendar.v1.CalendarSource"
	listEventsMethod = "/" + serviceName + "/ListEvents"
)

// Event is one busy interval as served by a plugin.
type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Priority int
}

// EventSource is implemented by plugin binaries.
type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// PluginMap returns the plugins a calendar binary serves or a host dispenses.
func PluginMap(impl EventSource) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{Name: &CalendarPlugin{Impl: impl}}
}

// CalendarPlugin is the plugin.GRPCPlugin for calendar sources.
type CalendarPlugin struct {
	plugin.Plugin
	// Impl is the plugin-side implementation.
	Impl EventSource
}

var _ plugin.GRPCPlugin = (*CalendarPlugin)(nil)

// GRPCServer registers the calendar service on s.
func (p *CalendarPlugin) GRPCServer(_ *plugin.GRPCBroker, s *grpc.Server) error {
	if p.Impl == nil {
		return fmt.Errorf("calendar plugin: no implementation")
	}
	s.RegisterService(&serviceDesc, &grpcServer{impl: p.Impl})
	return nil
}

// GRPCClient returns an EventSource backed by c.
func (p *CalendarPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return &grpcClient{conn: c}, nil
}

// calendarSourceServer is the handler type of serviceDesc.
type calendarSourceServer interface {
	listEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*calendarSourceServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "ListEvents",
		Handler:    listEventsHandler,
	}},
	Metadata: "cadence/calendar/v1/calendar.proto",
}

func listEventsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	server := srv.(calendarSourceServer)
	if interceptor == nil {
		return server.listEvents(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listEventsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return server.listEvents(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

type grpcServer struct {
	impl EventSource
}

func (s *grpcServer) listEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from, to, err := decodeRange(req)
	if err != nil {
		return nil, err
	}
	events, err := s.impl.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return encodeEvents(events)
}

type grpcClient struct {
	conn grpc.ClientConnInterface
}

// ListEvents implements EventSource over gRPC.
func (c *grpcClient) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"from": from.UTC().Format(time.RFC3339Nano),
		"to":   to.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listEventsMethod, req, resp); err != nil {
		return nil, err
	}
	return decodeEvents(resp)
}

func decodeRange(req *structpb.Struct) (time.Time, time.Time, error) {
	fields := req.GetFields()
	from, err := time.Parse(time.RFC3339Nano, fields["from"].GetStringValue())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("decode from: %w", err)
	}
	to, err := time.Parse(time.RFC3339Nano, fields["to"].GetStringValue())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("decode to: %w", err)
	}
	return from, to, nil
}

func encodeEvents(events []Event) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(events))
	for _, e := range events {
		list = append(list, map[string]interface{}{
			"id":       e.ID,
			"title":    e.Title,
			"start":    e.Start.UTC().Format(time.RFC3339Nano),
			"end":      e.End.UTC().Format(time.RFC3339Nano),
			"all_day":  e.AllDay,
			"priority": e.Priority,
		})
	}
	return structpb.NewStruct(map[string]interface{}{"events": list})
}

func decodeEvents(resp *structpb.Struct) ([]Event, error) {
	values := resp.GetFields()["events"].GetListValue().GetValues()
	events := make([]Event, 0, len(values))
	for _, v := range values {
		fields := v.GetStructValue().GetFields()
		start, err := time.Parse(time.RFC3339Nano, fields["start"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode event start: %w", err)
		}
		end, err := time.Parse(time.RFC3339Nano, fields["end"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode event end: %w", err)
		}
		events = append(events, Event{
			ID:       fields["id"].GetStringValue(),
			Title:    fields["title"].GetStringValue(),
			Start:    start,
			End:      end,
			AllDay:   fields["all_day"].GetBoolValue(),
			Priority: int(fields["priority"].GetNumberValue()),
		})
	}
	return events, nil
}

// Serve runs source as a calendar plugin. It is called from a plugin
// binary's main and blocks until the host disconnects.
func Serve(source EventSource) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(source),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
