package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	taskgraph "github.com/joeycumines/go-taskgraph"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to YAML config")
	flag.Parse()

	cfg := taskgraph.LoadConfig(*configPath)
	fmt.Printf("Loaded config: %+v\n", cfg)

	s, err := taskgraph.New(cfg.Options()...)
	if err != nil {
		log.Fatal(err)
	}

	// Diamond: a feeds b and c, d joins on both.
	a, err := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		*out = 1
	})
	if err != nil {
		log.Fatal(err)
	}
	b, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		*out = a.Get() * 10
	}, taskgraph.After(a))
	c, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		*out = a.Get() * 100
	}, taskgraph.After(a), taskgraph.WithPriority(taskgraph.PriorityHigh))

	join, err := s.WhenAll(b, c)
	if err != nil {
		log.Fatal(err)
	}
	d, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		*out = b.Get() + c.Get()
	}, taskgraph.After(join))

	// A respawning counter: runs five passes before letting itself complete.
	passes := 0
	counter, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		passes++
		*out = passes
		if passes < 5 {
			m.Respawn()
		}
	})

	// A team task: every member contributes its rank, rank zero publishes.
	ranks := make(chan int, 64)
	team, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) {
		ranks <- m.Rank()
		m.TeamBarrier()
		if m.Rank() == 0 {
			close(ranks)
			for r := range ranks {
				*out += r
			}
		}
	}, taskgraph.AsTeamTask())

	if err := s.Wait(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("diamond: a=%d b=%d c=%d d=%d\n", a.Get(), b.Get(), c.Get(), d.Get())
	fmt.Printf("counter ran %d passes\n", counter.Get())
	fmt.Printf("team rank sum: %d\n", team.Get())

	for _, h := range []interface{ Release() }{a, b, c, d, join, counter, team} {
		h.Release()
	}

	if err := s.Shutdown(context.Background()); err != nil {
		log.Fatal(err)
	}
	stats := s.Pool().Stats()
	fmt.Printf("pool: reserved=%d outstanding=%d released_bytes=%d\n",
		stats.ReservedBlocks, stats.Outstanding, stats.ReleasedBytes)
}
