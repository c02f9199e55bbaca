package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"taskManager/internal/models/task"
)

var ErrMalformed = errors.New("повреждённая запись")

// Encode пишет заголовок и записи в формате
//
//	task:    id,TASK,name,status,description,duration,start
//	epic:    id,EPIC,name,status,description,duration[,start,end]
//	subtask: id,SUBTASK,name,status,description,epic,duration,start
//
// Поле с запятой, кавычкой или переводом строки берётся в кавычки,
// остальные записи совпадают с простым соединением через запятую.
// \r\n внутри кавычек при чтении становится \n; сервис \r в текст не пускает.
func Encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("запись заголовка: %w", err)
	}
	for _, r := range records {
		fields, err := r.fields()
		if err != nil {
			return err
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("запись %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("сброс буфера: %w", err)
	}
	return nil
}

func (r Record) fields() ([]string, error) {
	fields := []string{strconv.Itoa(r.ID), string(r.Kind), r.Name, string(r.Status), r.Description}

	switch r.Kind {
	case task.KindTask:
		fields = append(fields, formatDuration(r.Duration), formatTime(r.Start))
	case task.KindEpic:
		fields = append(fields, formatDuration(r.Duration))
		if r.Start != nil && r.End != nil {
			fields = append(fields, formatTime(r.Start), formatTime(r.End))
		}
	case task.KindSubtask:
		if r.EpicID == nil {
			return nil, fmt.Errorf("подзадача %d без эпика: %w", r.ID, ErrMalformed)
		}
		fields = append(fields, strconv.Itoa(*r.EpicID), formatDuration(r.Duration), formatTime(r.Start))
	default:
		return nil, fmt.Errorf("запись %d: неизвестный тип %q: %w", r.ID, r.Kind, ErrMalformed)
	}
	return fields, nil
}

// Decode читает поток, записанный Encode. Пустой поток - пустой снимок.
func Decode(rd io.Reader) ([]Record, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение заголовка: %w", err)
	}
	if strings.Join(header, ",") != Header {
		return nil, fmt.Errorf("неверный заголовок %q: %w", strings.Join(header, ","), ErrMalformed)
	}

	var records []Record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("чтение записи: %w", err)
		}
		line, _ := cr.FieldPos(0)
		r, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", line, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func parseFields(fields []string) (Record, error) {
	if len(fields) < 5 {
		return Record{}, fmt.Errorf("мало полей (%d): %w", len(fields), ErrMalformed)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("id %q: %w", fields[0], ErrMalformed)
	}
	kind, err := task.ParseKind(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("%v: %w", err, ErrMalformed)
	}
	status, err := task.ParseStatus(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("%v: %w", err, ErrMalformed)
	}

	r := Record{ID: id, Kind: kind, Name: fields[2], Status: status, Description: fields[4]}
	rest := fields[5:]

	switch kind {
	case task.KindTask:
		err = r.parseSchedule(rest, 2)
	case task.KindEpic:
		err = r.parseEpic(rest)
	case task.KindSubtask:
		if len(rest) == 0 {
			return Record{}, fmt.Errorf("подзадача %d без эпика: %w", id, ErrMalformed)
		}
		epicID, convErr := strconv.Atoi(rest[0])
		if convErr != nil {
			return Record{}, fmt.Errorf("id эпика %q: %w", rest[0], ErrMalformed)
		}
		r.EpicID = &epicID
		err = r.parseSchedule(rest[1:], 2)
	}
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// parseSchedule разбирает [duration, start]; пустые или отсутствующие поля - нет значения
func (r *Record) parseSchedule(fields []string, max int) error {
	if len(fields) > max {
		return fmt.Errorf("запись %d: лишние поля: %w", r.ID, ErrMalformed)
	}
	var err error
	if len(fields) > 0 {
		if r.Duration, err = parseDuration(fields[0]); err != nil {
			return err
		}
	}
	if len(fields) > 1 {
		if r.Start, err = parseTime(fields[1]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) parseEpic(fields []string) error {
	if len(fields) > 3 {
		return fmt.Errorf("эпик %d: лишние поля: %w", r.ID, ErrMalformed)
	}
	if err := r.parseSchedule(fields[:min(len(fields), 2)], 2); err != nil {
		return err
	}
	if len(fields) == 3 {
		end, err := parseTime(fields[2])
		if err != nil {
			return err
		}
		r.End = end
	}
	return nil
}

func formatDuration(d *time.Duration) string {
	if d == nil {
		return ""
	}
	return strconv.FormatInt(int64(*d/time.Minute), 10)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func parseDuration(raw string) (*time.Duration, error) {
	if raw == "" {
		return nil, nil
	}
	minutes, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || minutes < 0 {
		return nil, fmt.Errorf("длительность %q: %w", raw, ErrMalformed)
	}
	d := time.Duration(minutes) * time.Minute
	return &d, nil
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(TimeLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("время %q: %w", raw, ErrMalformed)
	}
	return &t, nil
}
