// Command themeforge runs the design-token configurator.
package main

import (
	"fmt"
	"os"

	"github.com/livetemplate/themeforge/cmd/themeforge/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args, version)
	case "mcp":
		err = commands.MCPCommand(args, version)
	case "export":
		err = commands.ExportCommand(args)
	case "show":
		err = commands.ShowCommand(args)
	case "reset":
		err = commands.ResetCommand(args)
	case "version":
		fmt.Printf("themeforge version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("themeforge - Live design token configurator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  themeforge serve [directory]            Start the editor")
	fmt.Println("  themeforge mcp [directory]              Serve the assistant tools over stdio")
	fmt.Println("  themeforge export <format> [directory]  Export the saved document")
	fmt.Println("  themeforge show [directory]             Print the saved document")
	fmt.Println("  themeforge reset [directory]            Delete the saved document")
	fmt.Println("  themeforge version                      Show version")
	fmt.Println("  themeforge help                         Show this help")
	fmt.Println()
	fmt.Println("Export formats: css, json, md, html, pdf, page.pdf")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  themeforge serve                        # Serve with ./themeforge.yaml")
	fmt.Println("  themeforge serve --port 3000 --debug    # Custom port, verbose logs")
	fmt.Println("  themeforge export css -o theme.css      # Write CSS variables to a file")
	fmt.Println("  themeforge export pdf > sheet.pdf       # Style sheet PDF to stdout")
	fmt.Println()
	fmt.Println("Documentation: https://github.com/livetemplate/themeforge")
}
