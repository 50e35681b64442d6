// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dispatcher_test

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-dispatcher"
)

func Example() {
	d, err := dispatcher.New(nil, nil, 16)
	if err != nil {
		panic(err)
	}
	defer d.Destroy()

	// may be queued before Start
	hello := make(chan struct{})
	_ = d.Call(func() {
		fmt.Println(`hello from the worker`)
		close(hello)
	})

	if err := d.Start(); err != nil {
		panic(err)
	}
	<-hello

	fired := make(chan struct{})
	_ = d.Schedule(100*time.Millisecond, 7, func() {
		fmt.Println(`tag 7 fired`)
		close(fired)
	})
	fmt.Println(`waiting:`, d.ScheduleWaiting(7))

	<-fired
	fmt.Println(`waiting:`, d.ScheduleWaiting(7))

	//output:
	//hello from the worker
	//waiting: true
	//tag 7 fired
	//waiting: false
}

func ExampleDispatcher_ScheduleClear() {
	d, err := dispatcher.New(nil, nil, 4)
	if err != nil {
		panic(err)
	}
	defer d.Destroy()

	_ = d.Schedule(time.Hour, 1, func() { fmt.Println(`never runs`) })

	fmt.Println(d.ScheduleClear(1))
	fmt.Println(d.ScheduleWaiting(1))
	fmt.Println(d.ScheduleClear(1))

	//output:
	//true
	//false
	//false
}

func ExampleHook() {
	notified := make(chan struct{})

	d, err := dispatcher.New(func(d *dispatcher.Dispatcher, reasons dispatcher.Reason) {
		if reasons&dispatcher.ReasonUser != 0 {
			fmt.Println(`user reason:`, d.Data())
			close(notified)
		}
	}, `config reloaded`, 4)
	if err != nil {
		panic(err)
	}
	defer d.Destroy()

	if err := d.Start(); err != nil {
		panic(err)
	}

	_ = d.Notify(dispatcher.ReasonUser)
	<-notified

	//output:
	//user reason: config reloaded
}
