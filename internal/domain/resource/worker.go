package resource

import "slices"

// WorkerStatus is reported by the load balancer. Values outside the known
// constants are kept verbatim.
type WorkerStatus string

const (
	WorkerUp          WorkerStatus = "Up"
	WorkerCrashed     WorkerStatus = "Crashed"
	WorkerConfiguring WorkerStatus = "Configuring"
)

type Worker struct {
	ID       string       `json:"id"`                  //
	Protocol string       `json:"protocol"`            // http | https
	Host     string       `json:"host"`                // host[:port]
	PublicIP *string      `json:"public_ip,omitempty"` // nullable
	UDPPorts []uint16     `json:"udp_ports,omitempty"` //
	Codecs   []Codec      `json:"codecs"`              // ordered
	Encoder  *string      `json:"encoder"`             // nullable until configured
	Status   WorkerStatus `json:"status"`              //
	Stats    WorkerStats  `json:"stats"`               //
	Streams  *int         `json:"streams,omitempty"`   // reported by the worker itself
	Server   *string      `json:"server,omitempty"`    // worker build string
}

type WorkerStats struct {
	Utilization uint32   `json:"utilization"` // 0-100
	Devices     []uint32 `json:"devices"`     // per-device 0-100
}

// Endpoint returns the worker base URL, e.g. "http://10.0.0.4:8080".
func (w *Worker) Endpoint() string {
	proto := w.Protocol
	if proto == "" {
		proto = "http"
	}
	return proto + "://" + w.Host
}

// Supports reports whether the worker advertises codec c.
func (w *Worker) Supports(c Codec) bool {
	return slices.Contains(w.Codecs, c)
}

// Clone returns a deep copy.
func (w Worker) Clone() Worker {
	out := w
	out.PublicIP = clonePtr(w.PublicIP)
	out.UDPPorts = slices.Clone(w.UDPPorts)
	out.Codecs = slices.Clone(w.Codecs)
	out.Encoder = clonePtr(w.Encoder)
	out.Stats.Devices = slices.Clone(w.Stats.Devices)
	out.Streams = clonePtr(w.Streams)
	out.Server = clonePtr(w.Server)
	return out
}

// CloneWorkers deep-copies a worker list. A nil input yields nil.
func CloneWorkers(in []Worker) []Worker {
	if in == nil {
		return nil
	}
	out := make([]Worker, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
