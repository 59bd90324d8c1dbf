package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/scenario"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	scenarioFlag = flag.String("scenario", "petanque", "Built-in scenario name, or path to a YAML scenario file")
	stepsFlag    = flag.Int("steps", 600, "Number of steps to simulate")
	dtFlag       = flag.Float64("dt", 1.0/60.0, "Time step, in seconds")
	throwEvery   = flag.Int("throw-every", 120, "Fire the next trigger every N steps, 0 to disable")
	debugFlag    = flag.Bool("debug", false, "Write a log of the simulation to logs/petanque.log")
)

func main() {
	flag.Parse()

	if logFile := setupLogging(*debugFlag); logFile != nil {
		defer logFile.Close()
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "petanque: %v\n", err)
		os.Exit(1)
	}
}

func loadScenario(name string) (*scenario.Scenario, error) {
	if _, err := os.Stat(name); err == nil {
		return scenario.LoadFile(name)
	}

	return scenario.Builtin(name)
}

func run() error {
	if err := impulse.ValidateTimeStep(*dtFlag); err != nil {
		return err
	}

	s, err := loadScenario(*scenarioFlag)
	if err != nil {
		return err
	}

	world := impulse.NewWorld(mgl64.Vec3{})
	if err := s.Apply(world); err != nil {
		return err
	}
	log.Printf("scenario %q: %d bodies, gravity %v", s.Name, len(world.Bodies), world.Gravity)

	contacts := 0
	world.Events.Subscribe(impulse.CONTACT, func(event impulse.Event) {
		e := event.(impulse.ContactEvent)
		contacts++
		log.Printf("contact %s/%s t=%.5f impulse=%.4f at %v", e.BodyA.Name, e.BodyB.Name, e.TimeOfImpact, e.Impulse, e.Point)
	})
	world.Events.Subscribe(impulse.COLLISION_ENTER, func(event impulse.Event) {
		e := event.(impulse.CollisionEnterEvent)
		log.Printf("enter %s/%s", e.BodyA.Name, e.BodyB.Name)
	})
	world.Events.Subscribe(impulse.COLLISION_EXIT, func(event impulse.Event) {
		e := event.(impulse.CollisionExitEvent)
		log.Printf("exit %s/%s", e.BodyA.Name, e.BodyB.Name)
	})

	nextTrigger := 0
	for step := 0; step < *stepsFlag; step++ {
		if *throwEvery > 0 && step%*throwEvery == 0 && nextTrigger < len(s.Triggers) {
			trigger := s.Triggers[nextTrigger]
			nextTrigger++

			if err := trigger.Fire(world); err != nil {
				log.Printf("step %d: %v", step, err)
			} else {
				log.Printf("step %d: fired %s", step, trigger.Name)
			}
		}

		world.Update(*dtFlag)
	}

	fmt.Printf("%s: %d steps of %.4fs, %d contacts\n", s.Name, *stepsFlag, *dtFlag, contacts)
	for _, body := range world.Bodies {
		if body.IsStatic() {
			continue
		}
		fmt.Printf("  %-12s position %8.3f %8.3f %8.3f  speed %7.3f\n",
			body.Name,
			body.Transform.Position.X(), body.Transform.Position.Y(), body.Transform.Position.Z(),
			body.LinearVelocity.Len(),
		)
	}

	return nil
}
