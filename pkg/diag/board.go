package diag

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "biosboot"

// BoardID identifies the board in published topics. The machine id is
// hashed so the raw value never leaves the host.
func BoardID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "unknown"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
