package events

import (
	"strings"

	"serotonyl.ru/herd-bot/internal/features/herd"
)

// HookContext — данные о только что завершённой мини-игре для обработчика результата.
type HookContext struct {
	Kind         herd.Kind
	Day          int
	Lead         *herd.Character // Может быть nil
	Participants []*herd.Character
}

// OutcomeFunc правит результат мини-игры на месте до слияния с итогами дня.
type OutcomeFunc func(hc HookContext, res *herd.Result)

var hooks = map[string]OutcomeFunc{
	"greedy_bonus":    greedyBonus,
	"vain_mirror":     vainMirror,
	"sleepy_snooze":   sleepySnooze,
	"playful_zoomies": playfulZoomies,
	"social_cheer":    socialCheer,
}

func noop(HookContext, *herd.Result) {}

func appendSummary(res *herd.Result, line string) {
	res.Summary = strings.TrimSpace(res.Summary + " " + line)
}

func greedyBonus(hc HookContext, res *herd.Result) {
	if hc.Lead == nil {
		return
	}
	a := res.Adjust(hc.Lead.ID)
	if res.Success {
		a.Happiness += 5
		a.Chonk += 2
		appendSummary(res, hc.Lead.Name+" grabbed a second helping.")
		return
	}
	a.Happiness -= 5
	appendSummary(res, hc.Lead.Name+" sulks over the empty bowl.")
}

func vainMirror(hc HookContext, res *herd.Result) {
	if hc.Lead == nil || !res.Success {
		return
	}
	a := res.Adjust(hc.Lead.ID)
	a.Happiness += 6
	if res.Perfect {
		a.Cleanliness += 5
		appendSummary(res, hc.Lead.Name+" spent ages admiring the reflection.")
	}
}

func sleepySnooze(hc HookContext, res *herd.Result) {
	if hc.Lead == nil {
		return
	}
	res.Adjust(hc.Lead.ID).Happiness += 4
	if !res.Success {
		appendSummary(res, hc.Lead.Name+" dozed off anyway.")
	}
}

func playfulZoomies(hc HookContext, res *herd.Result) {
	if !res.Success {
		return
	}
	for _, p := range hc.Participants {
		res.Adjust(p.ID).Happiness += 2
	}
	if hc.Lead != nil {
		res.Adjust(hc.Lead.ID).Cleanliness -= 3
		appendSummary(res, hc.Lead.Name+" did three victory laps through the mud.")
	}
}

func socialCheer(hc HookContext, res *herd.Result) {
	if !res.Success {
		return
	}
	for _, p := range hc.Participants {
		res.Adjust(p.ID).Happiness += 3
	}
	appendSummary(res, "Everyone cheered together.")
}
