package compat

import "fmt"

// Check compares the host client version against the on-device server
// version. The tools version travels in the result but never gates the
// status. Check is a pure function over its three inputs.
func Check(client, tools, server VersionInfo) Result {
	if !client.Installed {
		return Result{
			Status:        StatusNotInstalled,
			Message:       "Frida Python library not installed on host",
			ServerVersion: server.Version,
			ToolsVersion:  tools.Version,
			FixCommand:    "pip install frida",
		}
	}

	if !server.Installed {
		fix := "fridactl install --latest"
		if client.Version != "" {
			fix = "fridactl install " + client.Version
		}
		return Result{
			Status:        StatusNotInstalled,
			Message:       "Frida server not installed on device",
			ClientVersion: client.Version,
			ToolsVersion:  tools.Version,
			FixCommand:    fix,
		}
	}

	res := Result{
		ClientVersion: client.Version,
		ToolsVersion:  tools.Version,
		ServerVersion: server.Version,
	}

	if client.Version == "" || server.Version == "" {
		res.Status = StatusUnknown
		res.Message = "Could not determine versions"
		return res
	}

	cv := Parse(client.Version)
	sv := Parse(server.Version)
	switch {
	case cv.IsZero() && sv.IsZero() && client.Version != server.Version:
		// Neither string carries a usable version.
		res.Status = StatusUnknown
		res.Message = "Could not determine versions"
	case Compatible(client.Version, server.Version, true):
		res.Status = StatusMatch
		res.Message = fmt.Sprintf("Perfect match: Client %s = Server %s", client.Version, server.Version)
	case Compatible(client.Version, server.Version, false):
		res.Status = StatusCompatible
		res.Message = fmt.Sprintf("Compatible: Client %s ~ Server %s", client.Version, server.Version)
	default:
		res.Status = StatusMismatch
		res.Message = fmt.Sprintf("Version mismatch: Client %s != Server %s", client.Version, server.Version)
		res.FixCommand = "fridactl install " + client.Version
	}
	return res
}
