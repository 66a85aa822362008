package scanner

import "noxscan/models"

// defaultPorts is the candidate port list probed in full mode when the
// caller supplies none: the well-known administrative and service ports.
var defaultPorts = []int{
	21, 22, 23, 25, 53, 80, 110, 135, 139, 143,
	443, 993, 995, 1723, 3389, 5900, 8080, 8443,
}

// defaultServices maps well-known ports to service labels.
var defaultServices = map[int]string{
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	135:   "MS-RPC",
	139:   "NetBIOS",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	993:   "IMAPS",
	995:   "POP3S",
	1723:  "PPTP",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	6379:  "Redis",
	8000:  "HTTP-Alt",
	8080:  "HTTP-Proxy",
	8443:  "HTTPS-Alt",
	9200:  "Elasticsearch",
	27017: "MongoDB",
}

// webPorts are ports eligible for the HTTP GET banner fallback and web
// metadata enrichment.
var webPorts = map[int]bool{
	80: true, 443: true, 8000: true, 8080: true, 8443: true,
}

// ServiceTable resolves ports to service labels. Custom entries take
// precedence over the built-in dictionary.
type ServiceTable struct {
	custom map[int]string
}

// NewServiceTable creates a table with optional custom overrides, typically
// loaded from the services dictionary file.
func NewServiceTable(custom map[int]string) *ServiceTable {
	return &ServiceTable{custom: custom}
}

// Lookup returns the best-guess label for port, or the generic unknown label.
func (t *ServiceTable) Lookup(port int) string {
	if t != nil && t.custom != nil {
		if name, ok := t.custom[port]; ok && name != "" {
			return name
		}
	}
	if name, ok := defaultServices[port]; ok {
		return name
	}
	return models.ServiceUnknown
}

// IsWebPort reports whether port usually carries HTTP.
func IsWebPort(port int) bool {
	return webPorts[port]
}

// DefaultPorts returns a copy of the built-in candidate port list.
func DefaultPorts() []int {
	out := make([]int, len(defaultPorts))
	copy(out, defaultPorts)
	return out
}
