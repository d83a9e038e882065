// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"interview-workers/pkg/registry"
)

const defaultPath = "pkg/registry/activities.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		fs.Parse(os.Args[2:])

		reg := load(*path)
		sort.Slice(reg.Activities, func(i, j int) bool { return reg.Activities[i].TaskType < reg.Activities[j].TaskType })
		for _, a := range reg.Activities {
			fmt.Printf("%-26s %-30s %-12s timeout=%s retries=%d\n", a.TaskType, a.ID, a.ImplementationStatus, a.Timeout, a.Retries)
		}

	case "update":
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID to update (e.g. interview.video.request)")
		field := fs.String("field", "", "Field to update (status, version, displayName, description, timeout, retries)")
		value := fs.String("value", "", "New value for the field")
		fs.Parse(os.Args[2:])

		if *id == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			fs.Usage()
			os.Exit(1)
		}

		reg := load(*path)
		if err := reg.Update(*id, *field, *value); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if problems := reg.Validate(); len(problems) > 0 {
			report(problems)
			os.Exit(1)
		}
		save(*path, reg)
		fmt.Printf("Updated %s.%s = %s\n", *id, *field, *value)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ExitOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		fs.Parse(os.Args[2:])

		reg := load(*path)
		if problems := reg.Validate(); len(problems) > 0 {
			report(problems)
			os.Exit(1)
		}
		fmt.Printf("Registry valid: %d activities (version %s)\n", len(reg.Activities), reg.Version)

	default:
		help()
		os.Exit(1)
	}
}

func load(path string) *registry.ActivityRegistry {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		fmt.Printf("Error loading registry %s: %v\n", path, err)
		os.Exit(1)
	}
	return reg
}

func save(path string, reg *registry.ActivityRegistry) {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling registry: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		fmt.Printf("Error writing registry: %v\n", err)
		os.Exit(1)
	}
}

func report(problems []error) {
	fmt.Printf("Registry has %d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Printf("  - %v\n", p)
	}
}

func help() {
	fmt.Println("Usage: registry-updater <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  list      List registered activities")
	fmt.Println("  update    Update a field of an activity")
	fmt.Println("  validate  Check naming, timeouts and schemas")
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  registry-updater update -id interview.video.expire -field timeout -value 10m")
}
