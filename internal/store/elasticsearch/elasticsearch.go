// Package elasticsearch stores employee records in Elasticsearch via olivere/elastic.
//
// Two indices are used: one document per employee id, and one document per
// claimed email address. Both are written with op_type=create, so the
// cluster itself refuses a second document with the same id.
package elasticsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/olivere/elastic"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
)

// docType is the single mapping type used by 6.x clusters.
const docType = "_doc"

const employeesMapping = `{
  "mappings": {
    "_doc": {
      "properties": {
        "employee_id":     {"type": "long"},
        "name":            {"type": "text"},
        "email":           {"type": "keyword"},
        "phone":           {"type": "keyword"},
        "department":      {"type": "keyword"},
        "date_of_joining": {"type": "date", "format": "yyyy-MM-dd"},
        "role":            {"type": "text"},
        "created_at":      {"type": "date"}
      }
    }
  }
}`

const emailsMapping = `{
  "mappings": {
    "_doc": {
      "properties": {
        "email":       {"type": "keyword"},
        "employee_id": {"type": "long"}
      }
    }
  }
}`

// Indices names the two indices the store writes to.
type Indices struct {
	Employees string
	Emails    string
}

// Store is a core.Store backed by Elasticsearch.
type Store struct {
	client  *elastic.Client
	indices Indices
}

// New wraps an existing client.
func New(client *elastic.Client, indices Indices) *Store {
	return &Store{client: client, indices: indices}
}

// Open connects to cfg.URL. Failures wrap core.ErrUnavailable.
func Open(ctx context.Context, cfg config.ElasticConfig) (*Store, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(cfg.Sniff),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: elasticsearch client: %w", core.ErrUnavailable, err)
	}

	if _, _, err := client.Ping(cfg.URL).Do(ctx); err != nil {
		client.Stop()
		return nil, fmt.Errorf("%w: ping elasticsearch: %w", core.ErrUnavailable, err)
	}

	return New(client, Indices{Employees: cfg.EmployeesIndex, Emails: cfg.EmailsIndex}), nil
}

type employeeDoc struct {
	EmployeeID    int64     `json:"employee_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Department    string    `json:"department"`
	DateOfJoining string    `json:"date_of_joining"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

type emailDoc struct {
	Email      string `json:"email"`
	EmployeeID int64  `json:"employee_id"`
}

func toDoc(rec core.EmployeeRecord) employeeDoc {
	return employeeDoc{
		EmployeeID:    rec.EmployeeID,
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		Department:    string(rec.Department),
		DateOfJoining: rec.DateOfJoining.Format(core.DateLayout),
		Role:          rec.Role,
		CreatedAt:     rec.CreatedAt.UTC(),
	}
}

func (d employeeDoc) record() (core.EmployeeRecord, error) {
	doj, err := time.Parse(core.DateLayout, d.DateOfJoining)
	if err != nil {
		return core.EmployeeRecord{}, fmt.Errorf("employee %d: date_of_joining: %w", d.EmployeeID, err)
	}
	return core.EmployeeRecord{
		EmployeeID:    d.EmployeeID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		Department:    core.Department(d.Department),
		DateOfJoining: doj,
		Role:          d.Role,
		CreatedAt:     d.CreatedAt,
	}, nil
}

func employeeDocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// EmailDocID is the emails-index document id claimed by an address.
func EmailDocID(email string) string {
	h := sha256.Sum256([]byte(core.NormalizeEmail(email)))
	return hex.EncodeToString(h[:16])
}

// FindConflicting returns the records holding id or email, ordered by id.
func (s *Store) FindConflicting(ctx context.Context, employeeID int64, email string) ([]core.EmployeeRecord, error) {
	var out []core.EmployeeRecord

	rec, err := s.Get(ctx, employeeID)
	switch {
	case err == nil:
		out = append(out, rec)
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	var claim emailDoc
	found, err := s.getDoc(ctx, s.indices.Emails, EmailDocID(email), &claim)
	if err != nil {
		return nil, err
	}
	if found && claim.EmployeeID != employeeID {
		rec, err := s.Get(ctx, claim.EmployeeID)
		switch {
		case err == nil:
			out = append(out, rec)
		case errors.Is(err, core.ErrNotFound):
			// Claim without its employee; the address is still taken.
			out = append(out, core.EmployeeRecord{EmployeeID: claim.EmployeeID, Email: claim.Email})
		default:
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// Insert claims the email, then creates the employee document. If the
// employee id is taken the claim is released again.
func (s *Store) Insert(ctx context.Context, rec core.EmployeeRecord) error {
	doc := toDoc(rec)
	email := core.NormalizeEmail(doc.Email)

	err := s.createDoc(ctx, s.indices.Emails, EmailDocID(email), emailDoc{
		Email:      email,
		EmployeeID: doc.EmployeeID,
	})
	if errors.Is(err, core.ErrDuplicate) {
		return fmt.Errorf("%w: email %s", core.ErrDuplicate, email)
	}
	if err != nil {
		return err
	}

	err = s.createDoc(ctx, s.indices.Employees, employeeDocID(doc.EmployeeID), doc)
	if err == nil {
		return nil
	}

	if relErr := s.deleteDoc(ctx, s.indices.Emails, EmailDocID(email)); relErr != nil {
		err = errors.Join(err, fmt.Errorf("release email claim: %w", relErr))
	}
	if errors.Is(err, core.ErrDuplicate) {
		return fmt.Errorf("%w: employee_id %d", core.ErrDuplicate, doc.EmployeeID)
	}
	return err
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, employeeID int64) (core.EmployeeRecord, error) {
	var doc employeeDoc
	found, err := s.getDoc(ctx, s.indices.Employees, employeeDocID(employeeID), &doc)
	if err != nil {
		return core.EmployeeRecord{}, err
	}
	if !found {
		return core.EmployeeRecord{}, core.ErrNotFound
	}
	return doc.record()
}

// Ping requires both indices to exist.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.IndexExists(s.indices.Employees, s.indices.Emails).Do(ctx)
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("indices %s and %s not found", s.indices.Employees, s.indices.Emails)
	}
	return nil
}

// Migrate creates any missing index with its mapping.
func (s *Store) Migrate(ctx context.Context) error {
	specs := []struct {
		name    string
		mapping string
	}{
		{s.indices.Employees, employeesMapping},
		{s.indices.Emails, emailsMapping},
	}

	for _, spec := range specs {
		exists, err := s.client.IndexExists(spec.name).Do(ctx)
		if err != nil {
			return fmt.Errorf("index exists %s: %w", spec.name, err)
		}
		if exists {
			continue
		}
		if _, err := s.client.CreateIndex(spec.name).BodyString(spec.mapping).Do(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", spec.name, err)
		}
	}
	return nil
}

// Close stops the client's background goroutines.
func (s *Store) Close() error {
	s.client.Stop()
	return nil
}

func (s *Store) createDoc(ctx context.Context, index, id string, body interface{}) error {
	_, err := s.client.Index().
		Index(index).
		Type(docType).
		Id(id).
		OpType("create").
		Refresh("wait_for").
		BodyJson(body).
		Do(ctx)
	if err != nil {
		if elastic.IsConflict(err) {
			return fmt.Errorf("%w: %s/%s", core.ErrDuplicate, index, id)
		}
		return classify(fmt.Errorf("create %s/%s: %w", index, id, err))
	}
	return nil
}

func (s *Store) getDoc(ctx context.Context, index, id string, v interface{}) (bool, error) {
	res, err := s.client.Get().
		Index(index).
		Type(docType).
		Id(id).
		Realtime(true).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, classify(fmt.Errorf("get %s/%s: %w", index, id, err))
	}
	if !res.Found || res.Source == nil {
		return false, nil
	}

	raw, err := res.Source.MarshalJSON()
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", index, id, err)
	}
	return true, nil
}

func (s *Store) deleteDoc(ctx context.Context, index, id string) error {
	_, err := s.client.Delete().
		Index(index).
		Type(docType).
		Id(id).
		Refresh("wait_for").
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return err
	}
	return nil
}

// classify marks transport failures as core.ErrUnavailable.
func classify(err error) error {
	if errors.Is(err, elastic.ErrNoClient) || elastic.IsTimeout(err) {
		return fmt.Errorf("%w: %w", core.ErrUnavailable, err)
	}
	return err
}
