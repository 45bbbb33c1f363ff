package cluster

import "fmt"

// HostInfo locates one endpoint of a node: a hostname or IP plus a single
// port. Topology entries use the internal RPC endpoint of each worker.
type HostInfo struct {
	Hostname string `json:"hostname"`
	Port     uint16 `json:"port"`
}

// NewHostInfo builds a HostInfo.
func NewHostInfo(hostname string, port uint16) HostInfo {
	return HostInfo{Hostname: hostname, Port: port}
}

// Addr renders the host as "hostname:port" for dialing.
func (h HostInfo) Addr() string {
	return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
}

// NodeAddress is the full network identity a node registers in the cluster
// registry: a private host for intra-cluster traffic, a public host for
// external clients, and the node's two ports. In single-machine deployments
// private and public hosts are the same.
type NodeAddress struct {
	PrivateHost string `json:"private_host"`
	PublicHost  string `json:"public_host"`
	RPCPort     uint16 `json:"rpc_port"`
	HTTPPort    uint16 `json:"http_port"`
}

// NewNodeAddress builds a NodeAddress.
func NewNodeAddress(privateHost, publicHost string, rpcPort, httpPort uint16) NodeAddress {
	return NodeAddress{
		PrivateHost: privateHost,
		PublicHost:  publicHost,
		RPCPort:     rpcPort,
		HTTPPort:    httpPort,
	}
}

// InternalAddr is the intra-cluster RPC endpoint.
func (a NodeAddress) InternalAddr() string {
	return fmt.Sprintf("%s:%d", a.PrivateHost, a.RPCPort)
}

// HTTPAddr is the intra-cluster HTTP endpoint.
func (a NodeAddress) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", a.PrivateHost, a.HTTPPort)
}

// PublicHTTPAddr is the HTTP endpoint external clients should use.
func (a NodeAddress) PublicHTTPAddr() string {
	return fmt.Sprintf("%s:%d", a.PublicHost, a.HTTPPort)
}

// InternalHost is the HostInfo form of the RPC endpoint, as recorded in the
// topology.
func (a NodeAddress) InternalHost() HostInfo {
	return NewHostInfo(a.PrivateHost, a.RPCPort)
}
