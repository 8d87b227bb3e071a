package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  scriptflow server                       # start editor API (foreground)")
	fmt.Println("  scriptflow start                        # start background daemon")
	fmt.Println("  scriptflow stop                         # stop background daemon")
	fmt.Println("  scriptflow status                       # show daemon status")
	fmt.Println("  scriptflow run --file graph.yaml        # run a graph locally")
	fmt.Println("  scriptflow types                        # list node types")
	fmt.Println("  scriptflow inst <create|ps|stop|logs|send> [args]")
}

func fail(err error) {
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		fail(runServer())
		return
	}
	switch os.Args[1] {
	case "server":
		fail(runServer())
	case "start":
		fail(startDaemon())
	case "stop":
		fail(stopDaemon())
	case "status":
		fail(statusDaemon())
	case "types":
		fail(listTypes(os.Stdout))
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		file := fs.String("file", "", "Path to graph document (YAML or JSON)")
		ticks := fs.Int("ticks", 1000, "Maximum number of ticks")
		dt := fs.Duration("dt", 16*time.Millisecond, "Simulated time per tick")
		entity := fs.String("entity", "", "Spawn an entity with this name and bind the graph to it")
		events := fs.Bool("events", false, "Log engine events")
		_ = fs.Parse(os.Args[2:])
		if *file == "" {
			fmt.Println("--file is required")
			os.Exit(2)
		}
		fail(runGraphFile(os.Stdout, runOptions{File: *file, Ticks: *ticks, Dt: *dt, Entity: *entity, Events: *events}))
	case "inst":
		instCommand(os.Args[2:])
	default:
		usage()
	}
}

func instCommand(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: scriptflow inst <create|ps|stop|logs|send> [args]")
		os.Exit(2)
	}
	fs := flag.NewFlagSet("inst "+args[0], flag.ExitOnError)
	id := fs.String("id", "", "Instance ID")
	switch args[0] {
	case "create":
		graph := fs.String("graph", "", "Name of a stored graph")
		_ = fs.Parse(args[1:])
		if *graph == "" {
			fmt.Println("--graph is required")
			os.Exit(2)
		}
		fail(instCreate(*graph))
	case "ps":
		fail(instPS())
	case "stop", "logs":
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Println("--id is required")
			os.Exit(2)
		}
		if args[0] == "stop" {
			fail(instStop(*id))
		} else {
			fail(instLogs(*id))
		}
	case "send":
		message := fs.String("message", "", "Message name")
		params := fs.String("params", "", "Message params as JSON")
		_ = fs.Parse(args[1:])
		if *id == "" || *message == "" {
			fmt.Println("--id and --message are required")
			os.Exit(2)
		}
		fail(instSend(*id, *message, *params))
	default:
		fmt.Println("Usage: scriptflow inst <create|ps|stop|logs|send> [args]")
		os.Exit(2)
	}
}
