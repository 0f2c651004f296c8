package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mergington/internal/adapters/repository"
	service "github.com/okian/mergington/internal/app"
	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testSeed() model.Directory {
	return model.Directory{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"Programming Class": {
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		"Art Club": {
			Description:     "Explore your creativity through painting and drawing",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 1,
		},
	}
}

func newService(opts ...service.Option) *service.Service {
	store, err := repository.NewMemoryStore(context.Background(), testSeed())
	if err != nil {
		panic(err)
	}
	return service.New(store, opts...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := newService()

		Convey("Then it is idle but serves the seeded directory", func() {
			stats := svc.GetStats(context.Background())
			So(stats.Started, ShouldBeFalse)
			So(stats.Activities, ShouldEqual, 3)
			So(stats.Participants, ShouldEqual, 4)
			So(stats.QueueCapacity, ShouldEqual, 10_000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := newService(
			service.WithWorkerCount(8),
			service.WithQueueSize(500),
			service.WithJournalSize(16),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats(context.Background())
			So(stats.QueueCapacity, ShouldEqual, 500)
			So(stats.JournalCapacity, ShouldEqual, 16)
		})
	})
}

func TestService_ListActivities(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When listing activities", func() {
			dir, err := svc.ListActivities(ctx)

			Convey("Then every seeded activity is returned with its roster", func() {
				So(err, ShouldBeNil)
				So(dir, ShouldContainKey, "Chess Club")
				So(dir["Chess Club"].Participants, ShouldResemble,
					[]string{"michael@mergington.edu", "daniel@mergington.edu"})
				So(dir["Art Club"].Participants, ShouldNotBeNil)
			})

			Convey("And mutating the result does not change the service", func() {
				chess := dir["Chess Club"]
				chess.Participants[0] = "mallory@mergington.edu"
				delete(dir, "Art Club")

				again, err := svc.ListActivities(ctx)
				So(err, ShouldBeNil)
				So(again, ShouldContainKey, "Art Club")
				So(again["Chess Club"].Participants[0], ShouldEqual, "michael@mergington.edu")
			})
		})
	})
}

func TestService_Signup(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When signing up a new student", func() {
			conf, err := svc.Signup(ctx, "Chess Club", "test@mergington.edu")

			Convey("Then a confirmation is returned and the roster grows", func() {
				So(err, ShouldBeNil)
				So(conf, ShouldResemble, model.Confirmation{Activity: "Chess Club", Email: "test@mergington.edu"})

				dir, _ := svc.ListActivities(ctx)
				So(dir["Chess Club"].Participants, ShouldResemble,
					[]string{"michael@mergington.edu", "daniel@mergington.edu", "test@mergington.edu"})
			})
		})

		Convey("When signing up the same student twice", func() {
			_, first := svc.Signup(ctx, "Programming Class", "duplicate@mergington.edu")
			_, second := svc.Signup(ctx, "Programming Class", "duplicate@mergington.edu")

			Convey("Then the second call is AlreadyRegistered and the email appears once", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, repository.ErrAlreadyRegistered), ShouldBeTrue)

				dir, _ := svc.ListActivities(ctx)
				count := 0
				for _, p := range dir["Programming Class"].Participants {
					if p == "duplicate@mergington.edu" {
						count++
					}
				}
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When a signup exceeds max_participants", func() {
			_, err1 := svc.Signup(ctx, "Art Club", "a@mergington.edu")
			_, err2 := svc.Signup(ctx, "Art Club", "b@mergington.edu")

			Convey("Then capacity is not enforced", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
			})
		})
	})
}

func TestService_Unregister(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := newService()

		Convey("When signing up, unregistering and listing", func() {
			_, err := svc.Signup(ctx, "Art Club", "unregister@mergington.edu")
			So(err, ShouldBeNil)
			conf, err := svc.Unregister(ctx, "Art Club", "unregister@mergington.edu")

			Convey("Then the email is gone from the roster", func() {
				So(err, ShouldBeNil)
				So(conf, ShouldResemble, model.Confirmation{Activity: "Art Club", Email: "unregister@mergington.edu"})

				dir, _ := svc.ListActivities(ctx)
				So(dir["Art Club"].Has("unregister@mergington.edu"), ShouldBeFalse)
			})
		})

		Convey("When unregistering a student who is not on the roster", func() {
			_, err := svc.Unregister(ctx, "Chess Club", "nobody@mergington.edu")

			Convey("Then NotRegistered is returned", func() {
				So(errors.Is(err, repository.ErrNotRegistered), ShouldBeTrue)
			})
		})
	})
}

func TestService_UnknownActivity(t *testing.T) {
	Convey("Given activity names outside the seed", t, func() {
		ctx := context.Background()
		svc := newService()
		names := []string{"NonexistentClub", "chess club", "Chess  Club", " Art Club", ""}

		Convey("Then signup and unregister both report NotFound", func() {
			for _, name := range names {
				_, err := svc.Signup(ctx, name, "test@mergington.edu")
				So(errors.Is(err, repository.ErrActivityNotFound), ShouldBeTrue)

				_, err = svc.Unregister(ctx, name, "test@mergington.edu")
				So(errors.Is(err, repository.ErrActivityNotFound), ShouldBeTrue)
			}
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService(service.WithWorkerCount(3))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it is marked as started with its workers", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats(ctx)
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 3)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			err := svc.Stop(ctx)

			Convey("Then it is marked as stopped", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
			})

			Convey("And it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a service that never started", func() {
			Convey("Then it returns without error", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}
