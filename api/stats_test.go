package main

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBuildTaskStats(t *testing.T) {
	counts := []statusCount{
		{Category: "Hobby", Status: statusInProgress, Count: 1},
		{Category: "Job", Status: statusCompleted, Count: 2},
		{Category: "Job", Status: statusIncomplete, Count: 1},
	}
	got := buildTaskStats(counts)
	want := []categoryStats{
		{Category: "Hobby", Statuses: []statusTally{{statusInProgress, 1}}, TotalTasks: 1},
		{Category: "Job", Statuses: []statusTally{{statusCompleted, 2}, {statusIncomplete, 1}}, TotalTasks: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildTaskStats = %+v, want %+v", got, want)
	}
}

func TestBuildTaskStatsEmpty(t *testing.T) {
	js, err := json.Marshal(buildTaskStats(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(js) != "[]" {
		t.Fatalf("empty stats encode as %s, want []", js)
	}
}
