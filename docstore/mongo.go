// ABOUTME: MongoDB implementation of the Store contract
// ABOUTME: Uses accounts and persons collections; batches run inside a multi-document transaction
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps persons in a MongoDB database. Batch writes need a replica
// set or sharded cluster because they run in transactions.
type MongoStore struct {
	client   *mongo.Client
	accounts *mongo.Collection
	persons  *mongo.Collection
}

var _ db.Store = (*MongoStore)(nil)

// personDoc adds the storage identity. ObjectIDs grow with insertion time,
// which gives storage order.
type personDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	EmailKey      string        `bson:"emailKey"`
	models.Person `bson:",inline"`
}

// OpenMongoStore connects, pings and ensures indexes.
func OpenMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{
		client:   client,
		accounts: client.Database(database).Collection("accounts"),
		persons:  client.Database(database).Collection("persons"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.persons.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "accountId", Value: 1}, {Key: "emailKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "emailKey", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create person indexes: %w", err)
	}
	return nil
}

// Drop removes both collections. Used by tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.persons.Drop(ctx); err != nil {
		return err
	}
	return s.accounts.Drop(ctx)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	cursor, err := s.accounts.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	accounts := []models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *MongoStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("account %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := db.Now()

	var existing models.Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": account.ID}).Decode(&existing)
	switch {
	case err == nil && !existing.CreatedAt.IsZero():
		account.CreatedAt = existing.CreatedAt
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		return err
	case account.CreatedAt.IsZero():
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err = s.accounts.ReplaceOne(ctx, bson.M{"_id": account.ID}, account, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) ListPersons(ctx context.Context, accountID string) ([]models.Person, error) {
	return s.findPersons(ctx, bson.M{"accountId": accountID})
}

func (s *MongoStore) FindPersonsByEmail(ctx context.Context, email string) ([]models.Person, error) {
	return s.findPersons(ctx, bson.M{"emailKey": models.EmailKey(email)})
}

func (s *MongoStore) GetPerson(ctx context.Context, accountID, email string) (*models.Person, error) {
	doc, err := s.getPerson(ctx, accountID, email)
	if err != nil {
		return nil, err
	}
	return &doc.Person, nil
}

func (s *MongoStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person == nil || person.AccountID == "" || person.Email == "" {
		return fmt.Errorf("create person: account and email are required")
	}
	db.PrepareNew(person, db.Now())

	_, err := s.persons.InsertOne(ctx, personDoc{EmailKey: person.Key(), Person: *person})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("person %s in account %s: %w", person.Email, person.AccountID, db.ErrConflict)
	}
	return err
}

func (s *MongoStore) SavePersons(ctx context.Context, accountID string, persons []models.Person) error {
	now := db.Now()
	return s.inTransaction(ctx, func(ctx context.Context) error {
		for i := range persons {
			p := persons[i].Clone()
			doc, err := s.getPerson(ctx, accountID, p.Email)
			switch {
			case err == nil:
				db.PrepareSave(&p, accountID, &doc.Person, now)
				doc.Person = p
			case errors.Is(err, db.ErrNotFound):
				db.PrepareSave(&p, accountID, nil, now)
				doc = &personDoc{ID: bson.NewObjectID(), EmailKey: p.Key(), Person: p}
			default:
				return err
			}
			if err := s.replacePerson(ctx, doc); err != nil {
				return fmt.Errorf("save %s: %w", p.Email, err)
			}
		}
		return nil
	})
}

func (s *MongoStore) ApplyBulkUpdate(ctx context.Context, accountID string, updates []models.RelationUpdate) error {
	now := db.Now()
	return s.inTransaction(ctx, func(ctx context.Context) error {
		for _, u := range updates {
			doc, err := s.getPerson(ctx, accountID, u.Email)
			if err != nil {
				return err
			}
			db.ApplyRelation(&doc.Person, u, now)
			if err := s.replacePerson(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *MongoStore) DeletePerson(ctx context.Context, accountID, email string) error {
	now := db.Now()
	return s.inTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.getPerson(ctx, accountID, email)
		if err != nil {
			return err
		}
		if err := db.CheckDeletable(&doc.Person); err != nil {
			return err
		}
		if mgrEmail := doc.Person.Manager(); mgrEmail != "" {
			mgr, err := s.getPerson(ctx, accountID, mgrEmail)
			switch {
			case err == nil:
				db.DetachFromManager(&mgr.Person, doc.Person.Email, now)
				if err := s.replacePerson(ctx, mgr); err != nil {
					return err
				}
			case !errors.Is(err, db.ErrNotFound):
				return err
			}
		}
		_, err = s.persons.DeleteOne(ctx, bson.M{"_id": doc.ID})
		return err
	})
}

// inTransaction commits fn's writes together or not at all.
func (s *MongoStore) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *MongoStore) getPerson(ctx context.Context, accountID, email string) (*personDoc, error) {
	var doc personDoc
	err := s.persons.FindOne(ctx, bson.M{"accountId": accountID, "emailKey": models.EmailKey(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.PersonNotFound(accountID, email)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MongoStore) replacePerson(ctx context.Context, doc *personDoc) error {
	_, err := s.persons.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) findPersons(ctx context.Context, filter bson.M) ([]models.Person, error) {
	cursor, err := s.persons.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []personDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	persons := make([]models.Person, len(docs))
	for i := range docs {
		persons[i] = docs[i].Person
	}
	return persons, nil
}
