package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"

	"fridactl/internal/compat"
	"fridactl/internal/doctor"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	failMark = color.New(color.FgRed).Sprint("✗")
	skipMark = color.New(color.FgHiBlack).Sprint("○")

	bold = color.New(color.Bold).SprintFunc()
)

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func versionMark(info compat.VersionInfo) string {
	if info.Installed {
		return okMark
	}
	return failMark
}

func compatMark(status compat.Status) string {
	switch status {
	case compat.StatusMatch, compat.StatusCompatible:
		return okMark
	case compat.StatusUnknown:
		return warnMark
	default:
		return failMark
	}
}

func doctorMark(status doctor.Status) string {
	switch status {
	case doctor.StatusOK:
		return okMark
	case doctor.StatusWarning:
		return warnMark
	case doctor.StatusError:
		return failMark
	default:
		return skipMark
	}
}
