// Package family — семейный челлендж: ротация игроков по мини-играм дня,
// очки, MVP дня и общая серия идеальных дней.
// Если челлендж выключен или в нём нет участников, все операции ничего не делают.
package family

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/herd"
)

// Очки за мини-игру.
const (
	PointsPerfect = 2
	PointsSuccess = 1

	MaxNameLength = 32
)

// Assignment — кто из участников отвечает за мини-игру.
type Assignment struct {
	Kind        herd.Kind
	Participant herd.Participant
}

// Play — результат мини-игры, сыгранной участником.
type Play struct {
	ParticipantID string
	Success       bool
	Perfect       bool
}

// Standing — строка таблицы лидеров.
type Standing struct {
	Participant herd.Participant
	Stats       herd.ParticipantStats
	DayScore    int
}

// Summary — итоги челленджа за день.
type Summary struct {
	Assignments []Assignment
	DayScores   map[string]int
	MVP         *herd.Participant
	Leaderboard []Standing
	NextUp      *herd.Participant
	Streak      int
	BestStreak  int
}

// Active — челлендж включён и в нём есть участники.
func Active(l *herd.FamilyLedger) bool {
	return l != nil && l.Enabled && len(l.Participants) > 0
}

// Assign раздаёт мини-игры очереди по кругу, начиная с индекса ротации.
func Assign(l *herd.FamilyLedger, queue []herd.Kind) []Assignment {
	if !Active(l) {
		return nil
	}
	n := len(l.Participants)
	out := make([]Assignment, 0, len(queue))
	for i, kind := range queue {
		out = append(out, Assignment{
			Kind:        kind,
			Participant: l.Participants[mod(l.RotationIndex+i, n)],
		})
	}
	return out
}

// Players — те же назначения в виде карты по видам мини-игр.
func Players(assignments []Assignment) map[herd.Kind]herd.Participant {
	if len(assignments) == 0 {
		return nil
	}
	out := make(map[herd.Kind]herd.Participant, len(assignments))
	for _, a := range assignments {
		out[a.Kind] = a.Participant
	}
	return out
}

// Finalize записывает итоги дня в журнал: статистику участников, MVP,
// серию и новый индекс ротации. rotation != nil задаёт индекс явно.
func Finalize(l *herd.FamilyLedger, day int, assignments []Assignment, plays []Play, perfectDay bool, rotation *int) *Summary {
	if !Active(l) {
		return nil
	}
	if l.Stats == nil {
		l.Stats = make(map[string]*herd.ParticipantStats)
	}

	scores := make(map[string]int, len(l.Participants))
	for _, p := range plays {
		if indexOf(l, p.ParticipantID) < 0 {
			continue
		}
		st := stats(l, p.ParticipantID)
		st.Plays++
		st.LastPlayedDay = day
		points := 0
		if p.Success {
			st.Wins++
			points = PointsSuccess
			if p.Perfect {
				st.PerfectClears++
				points = PointsPerfect
			}
		}
		st.Score += points
		scores[p.ParticipantID] += points
	}

	var mvp *herd.Participant
	if id := ElectMVP(l, scores); id != "" {
		st := stats(l, id)
		st.MVPCount++
		st.LastMVPDay = day
		l.LastMVP = id
		p := l.Participants[indexOf(l, id)]
		mvp = &p
	}

	if perfectDay {
		l.Streak++
	} else {
		l.Streak = 0
	}
	l.BestStreak = max(l.BestStreak, l.Streak)

	n := len(l.Participants)
	if rotation != nil {
		l.RotationIndex = mod(*rotation, n)
	} else {
		l.RotationIndex = mod(l.RotationIndex+len(assignments), n)
	}

	log.WithFields(log.Fields{
		"day":      day,
		"mvp":      l.LastMVP,
		"streak":   l.Streak,
		"rotation": l.RotationIndex,
	}).Debug("Итоги семейного челленджа записаны")

	return &Summary{
		Assignments: assignments,
		DayScores:   scores,
		MVP:         mvp,
		Leaderboard: board(l, scores),
		NextUp:      NextUp(l),
		Streak:      l.Streak,
		BestStreak:  l.BestStreak,
	}
}

// ElectMVP выбирает MVP дня по очкам. Без очков MVP нет.
//
// Ничья разрешается по порядку ротации: первый из претендентов после
// прошлого MVP (по кругу). Если прошлого MVP нет, берётся претендент
// с позиции PivotIndex среди претендентов, и PivotIndex сдвигается.
func ElectMVP(l *herd.FamilyLedger, scores map[string]int) string {
	best := 0
	for _, p := range l.Participants {
		best = max(best, scores[p.ID])
	}
	if best == 0 {
		return ""
	}

	var candidates []string
	for _, p := range l.Participants {
		if scores[p.ID] == best {
			candidates = append(candidates, p.ID)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	if last := indexOf(l, l.LastMVP); last >= 0 {
		n := len(l.Participants)
		for step := 1; step <= n; step++ {
			id := l.Participants[(last+step)%n].ID
			if slices.Contains(candidates, id) {
				return id
			}
		}
	}

	id := candidates[mod(l.PivotIndex, len(candidates))]
	l.PivotIndex++
	return id
}

// NextUp — чья очередь начинать следующий день.
func NextUp(l *herd.FamilyLedger) *herd.Participant {
	if !Active(l) {
		return nil
	}
	p := l.Participants[mod(l.RotationIndex, len(l.Participants))]
	return &p
}

// Board — таблица лидеров по накопленным очкам.
func Board(l *herd.FamilyLedger) []Standing {
	if l == nil {
		return nil
	}
	return board(l, nil)
}

func board(l *herd.FamilyLedger, scores map[string]int) []Standing {
	out := make([]Standing, 0, len(l.Participants))
	for _, p := range l.Participants {
		st := herd.ParticipantStats{}
		if s := l.Stats[p.ID]; s != nil {
			st = *s
		}
		out = append(out, Standing{Participant: p, Stats: st, DayScore: scores[p.ID]})
	}
	slices.SortStableFunc(out, func(a, b Standing) int {
		if a.Stats.Score != b.Stats.Score {
			return b.Stats.Score - a.Stats.Score
		}
		return b.Stats.MVPCount - a.Stats.MVPCount
	})
	return out
}

// SetEnabled включает или выключает челлендж, создавая журнал при необходимости.
func SetEnabled(s *herd.SaveState, on bool) {
	if s.Family == nil {
		s.Family = &herd.FamilyLedger{Stats: make(map[string]*herd.ParticipantStats)}
	}
	s.Family.Enabled = on
}

// AddParticipant добавляет участника в конец ротации.
func AddParticipant(l *herd.FamilyLedger, name string) (herd.Participant, error) {
	if l == nil || !l.Enabled {
		return herd.Participant{}, common.ErrFamilyDisabled
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return herd.Participant{}, common.ErrBadParticipantName
	}
	if findByName(l, name) >= 0 {
		return herd.Participant{}, common.ErrParticipantExists
	}

	p := herd.Participant{ID: uuid.NewString(), Name: name}
	l.Participants = append(l.Participants, p)
	if l.Stats == nil {
		l.Stats = make(map[string]*herd.ParticipantStats)
	}
	l.Stats[p.ID] = &herd.ParticipantStats{}
	return p, nil
}

// RemoveParticipant убирает участника. Индекс ротации продолжает указывать
// на того же следующего игрока, если тот остался.
func RemoveParticipant(l *herd.FamilyLedger, name string) error {
	if l == nil || !l.Enabled {
		return common.ErrFamilyDisabled
	}
	i := findByName(l, strings.TrimSpace(name))
	if i < 0 {
		return common.ErrParticipantNotFound
	}

	removed := l.Participants[i]
	l.Participants = slices.Delete(l.Participants, i, i+1)
	delete(l.Stats, removed.ID)
	if l.LastMVP == removed.ID {
		l.LastMVP = ""
	}

	if i < l.RotationIndex {
		l.RotationIndex--
	}
	l.RotationIndex = mod(l.RotationIndex, len(l.Participants))
	return nil
}

func findByName(l *herd.FamilyLedger, name string) int {
	for i, p := range l.Participants {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

func indexOf(l *herd.FamilyLedger, id string) int {
	if id == "" {
		return -1
	}
	for i, p := range l.Participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func stats(l *herd.FamilyLedger, id string) *herd.ParticipantStats {
	st, ok := l.Stats[id]
	if !ok || st == nil {
		st = &herd.ParticipantStats{}
		l.Stats[id] = st
	}
	return st
}

// mod — неотрицательный остаток; для n = 0 возвращает 0.
func mod(a, n int) int {
	if n <= 0 {
		return 0
	}
	return ((a % n) + n) % n
}
