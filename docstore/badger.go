// ABOUTME: Embedded BadgerDB implementation of the Store contract
// ABOUTME: Keeps JSON documents under account/ and person/ key prefixes with a sequence for ordering
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
)

const (
	accountPrefix = "account/"
	personPrefix  = "person/"
	seqKey        = "meta/person-seq"
)

// BadgerStore stores documents in a local badger directory.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ db.Store = (*BadgerStore)(nil)

// personRecord wraps a person with its insertion sequence.
type personRecord struct {
	Seq    uint64        `json:"seq"`
	Person models.Person `json:"person"`
}

// OpenBadgerStore opens the store in dir, or in memory when dir is empty.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	seq, err := bdb.GetSequence([]byte(seqKey), 100)
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("person sequence: %w", err)
	}
	return &BadgerStore{db: bdb, seq: seq}, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

func accountKey(id string) []byte {
	return []byte(accountPrefix + id)
}

func personKey(accountID, email string) []byte {
	return []byte(personPrefix + accountID + "/" + models.EmailKey(email))
}

func (s *BadgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(accountPrefix), func(val []byte) error {
			var a models.Account
			if err := json.Unmarshal(val, &a); err != nil {
				return err
			}
			accounts = append(accounts, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (s *BadgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, accountKey(id), &a)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BadgerStore) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := db.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.Account
		err := getJSON(txn, accountKey(account.ID), &existing)
		switch {
		case err == nil && !existing.CreatedAt.IsZero():
			account.CreatedAt = existing.CreatedAt
		case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
			return err
		case account.CreatedAt.IsZero():
			account.CreatedAt = now
		}
		account.UpdatedAt = now
		return setJSON(txn, accountKey(account.ID), account)
	})
}

func (s *BadgerStore) ListPersons(ctx context.Context, accountID string) ([]models.Person, error) {
	return s.scanPersons([]byte(personPrefix+accountID+"/"), nil)
}

func (s *BadgerStore) FindPersonsByEmail(ctx context.Context, email string) ([]models.Person, error) {
	key := models.EmailKey(email)
	return s.scanPersons([]byte(personPrefix), func(p *models.Person) bool {
		return p.Key() == key
	})
}

func (s *BadgerStore) GetPerson(ctx context.Context, accountID, email string) (*models.Person, error) {
	var rec *personRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getPerson(txn, accountID, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec.Person, nil
}

func (s *BadgerStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person == nil || person.AccountID == "" || person.Email == "" {
		return fmt.Errorf("create person: account and email are required")
	}
	db.PrepareNew(person, db.Now())

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := getPerson(txn, person.AccountID, person.Email)
		if err == nil {
			return fmt.Errorf("person %s in account %s: %w", person.Email, person.AccountID, db.ErrConflict)
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		n, err := s.seq.Next()
		if err != nil {
			return err
		}
		return setJSON(txn, personKey(person.AccountID, person.Email), personRecord{Seq: n, Person: *person})
	})
}

func (s *BadgerStore) SavePersons(ctx context.Context, accountID string, persons []models.Person) error {
	now := db.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range persons {
			p := persons[i].Clone()
			rec, err := getPerson(txn, accountID, p.Email)
			switch {
			case err == nil:
				db.PrepareSave(&p, accountID, &rec.Person, now)
				rec.Person = p
			case errors.Is(err, db.ErrNotFound):
				n, err := s.seq.Next()
				if err != nil {
					return err
				}
				db.PrepareSave(&p, accountID, nil, now)
				rec = &personRecord{Seq: n, Person: p}
			default:
				return err
			}
			if err := setJSON(txn, personKey(accountID, p.Email), rec); err != nil {
				return fmt.Errorf("save %s: %w", p.Email, err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) ApplyBulkUpdate(ctx context.Context, accountID string, updates []models.RelationUpdate) error {
	now := db.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		for _, u := range updates {
			rec, err := getPerson(txn, accountID, u.Email)
			if err != nil {
				return err
			}
			db.ApplyRelation(&rec.Person, u, now)
			if err := setJSON(txn, personKey(accountID, u.Email), rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) DeletePerson(ctx context.Context, accountID, email string) error {
	now := db.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getPerson(txn, accountID, email)
		if err != nil {
			return err
		}
		if err := db.CheckDeletable(&rec.Person); err != nil {
			return err
		}
		if mgrEmail := rec.Person.Manager(); mgrEmail != "" {
			mgr, err := getPerson(txn, accountID, mgrEmail)
			switch {
			case err == nil:
				db.DetachFromManager(&mgr.Person, rec.Person.Email, now)
				if err := setJSON(txn, personKey(accountID, mgrEmail), mgr); err != nil {
					return err
				}
			case !errors.Is(err, db.ErrNotFound):
				return err
			}
		}
		return txn.Delete(personKey(accountID, email))
	})
}

func (s *BadgerStore) scanPersons(prefix []byte, keep func(*models.Person) bool) ([]models.Person, error) {
	var records []personRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(val []byte) error {
			var rec personRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			if keep == nil || keep(&rec.Person) {
				records = append(records, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	persons := make([]models.Person, len(records))
	for i := range records {
		persons[i] = records[i].Person
	}
	return persons, nil
}

func getPerson(txn *badger.Txn, accountID, email string) (*personRecord, error) {
	var rec personRecord
	err := getJSON(txn, personKey(accountID, email), &rec)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.PersonNotFound(accountID, email)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(val, v)
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(val); err != nil {
			return err
		}
	}
	return nil
}
