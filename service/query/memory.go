package query

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/database/mongoclient"
	"github.com/x-xyz/nftmarket/domain"
)

type memTxKey struct{}

type mutation func(docs []bson.Raw) ([]bson.Raw, error)

// memTx stages writes on private copies of the touched tables and keeps the
// mutations to replay them on the committed state. Untouched tables are read
// from base, the committed tables as of the start of the transaction.
type memTx struct {
	base   map[domain.Table][]bson.Raw
	tables map[domain.Table][]bson.Raw
	log    []memOp
}

type memOp struct {
	table domain.Table
	fn    mutation
}

type memory struct {
	mu      sync.RWMutex
	tables  map[domain.Table][]bson.Raw
	uniques map[domain.Table][][]string
	// txSem serializes transactions
	txSem chan struct{}
}

// NewMemory returns a Mongo kept in process memory, documents are stored as bson with the
// mongoclient registry so both implementations decode the same way
func NewMemory() Mongo {
	return &memory{
		tables:  map[domain.Table][]bson.Raw{},
		uniques: map[domain.Table][][]string{},
		txSem:   make(chan struct{}, 1),
	}
}

func txOf(c context.Context) *memTx {
	tx, _ := c.Value(memTxKey{}).(*memTx)
	return tx
}

// view returns the documents of table as seen by context
func (im *memory) view(context ctx.Ctx, table domain.Table) []bson.Raw {
	if tx := txOf(context); tx != nil {
		if docs, ok := tx.tables[table]; ok {
			return docs
		}
		return tx.base[table]
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.tables[table]
}

func (im *memory) write(context ctx.Ctx, table domain.Table, fn mutation) error {
	if tx := txOf(context); tx != nil {
		docs, err := fn(copyDocs(im.view(context, table)))
		if err != nil {
			return err
		}
		tx.tables[table] = docs
		tx.log = append(tx.log, memOp{table, fn})
		return nil
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	docs, err := fn(copyDocs(im.tables[table]))
	if err != nil {
		return err
	}
	im.tables[table] = docs
	return nil
}

func copyDocs(docs []bson.Raw) []bson.Raw {
	res := make([]bson.Raw, len(docs))
	copy(res, docs)
	return res
}

func (im *memory) Insert(context ctx.Ctx, table domain.Table, insert interface{}) error {
	doc, err := mongoclient.Marshal(insert)
	if err != nil {
		context.WithField("err", err).Error("Insert: Marshal failed")
		return err
	}
	return im.write(context, table, func(docs []bson.Raw) ([]bson.Raw, error) {
		if err := im.checkUnique(table, docs, doc, -1); err != nil {
			return nil, err
		}
		return append(docs, doc), nil
	})
}

func (im *memory) FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error {
	filter, err := mongoclient.Marshal(query)
	if err != nil {
		return err
	}
	for _, doc := range im.view(context, table) {
		if matches(doc, filter) {
			return mongoclient.Unmarshal(doc, result)
		}
	}
	return ErrNotFound
}

func (im *memory) Count(context ctx.Ctx, table domain.Table, selector interface{}) (int, error) {
	filter, err := mongoclient.Marshal(selector)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range im.view(context, table) {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (im *memory) Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error {
	filter, err := mongoclient.Marshal(selector)
	if err != nil {
		return err
	}
	doc, err := mongoclient.Marshal(update)
	if err != nil {
		context.WithField("err", err).Error("Upsert: Marshal failed")
		return err
	}
	return im.write(context, table, func(docs []bson.Raw) ([]bson.Raw, error) {
		for i, d := range docs {
			if matches(d, filter) {
				if err := im.checkUnique(table, docs, doc, i); err != nil {
					return nil, err
				}
				docs[i] = doc
				return docs, nil
			}
		}
		if err := im.checkUnique(table, docs, doc, -1); err != nil {
			return nil, err
		}
		return append(docs, doc), nil
	})
}

func (im *memory) Search(context ctx.Ctx, table domain.Table, offset, limit int, sortField string, query, results interface{}) error {
	filter, err := mongoclient.Marshal(query)
	if err != nil {
		return err
	}

	found := []bson.Raw{}
	for _, doc := range im.view(context, table) {
		if matches(doc, filter) {
			found = append(found, doc)
		}
	}

	if sortField != "" {
		desc := strings.HasPrefix(sortField, "-")
		key := strings.TrimPrefix(sortField, "-")
		sort.SliceStable(found, func(i, j int) bool {
			c := compareValues(found[i].Lookup(key), found[j].Lookup(key))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if offset > len(found) {
		offset = len(found)
	}
	found = found[offset:]
	if limit > 0 && limit < len(found) {
		found = found[:limit]
	}

	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results must be a pointer to slice, got %T", results)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(found))
	for _, doc := range found {
		var elem reflect.Value
		if elemType.Kind() == reflect.Ptr {
			elem = reflect.New(elemType.Elem())
			if err := mongoclient.Unmarshal(doc, elem.Interface()); err != nil {
				return err
			}
		} else {
			ptr := reflect.New(elemType)
			if err := mongoclient.Unmarshal(doc, ptr.Interface()); err != nil {
				return err
			}
			elem = ptr.Elem()
		}
		out = reflect.Append(out, elem)
	}
	slice.Set(out)
	return nil
}

func (im *memory) Patch(context ctx.Ctx, table domain.Table, selector, update interface{}, ops ...PatchOp) error {
	o := initPatchOp()
	for _, opt := range ops {
		opt(o)
	}

	filter, err := mongoclient.Marshal(selector)
	if err != nil {
		return err
	}
	set, err := mongoclient.Marshal(update)
	if err != nil {
		return err
	}

	return im.write(context, table, func(docs []bson.Raw) ([]bson.Raw, error) {
		matched := 0
		for i, d := range docs {
			if !matches(d, filter) {
				continue
			}
			patched, err := setFields(d, set)
			if err != nil {
				return nil, err
			}
			if err := im.checkUnique(table, docs, patched, i); err != nil {
				return nil, err
			}
			docs[i] = patched
			matched++
			if !o.patchMany {
				break
			}
		}
		if matched == 0 {
			return nil, ErrNotFound
		}
		return docs, nil
	})
}

func (im *memory) Increment(context ctx.Ctx, table domain.Table, selector, result interface{}, field string, inc interface{}) error {
	filter, err := mongoclient.Marshal(selector)
	if err != nil {
		return err
	}
	incDoc, err := mongoclient.Marshal(bson.M{field: inc})
	if err != nil {
		return err
	}
	incVal := incDoc.Lookup(field)

	var res bson.Raw
	err = im.write(context, table, func(docs []bson.Raw) ([]bson.Raw, error) {
		for i, d := range docs {
			if !matches(d, filter) {
				continue
			}
			sum, err := addValues(d.Lookup(field), incVal)
			if err != nil {
				return nil, err
			}
			set, err := bson.Marshal(bson.D{{Key: field, Value: sum}})
			if err != nil {
				return nil, err
			}
			if docs[i], err = setFields(d, set); err != nil {
				return nil, err
			}
			res = docs[i]
			return docs, nil
		}

		set, err := bson.Marshal(bson.D{{Key: field, Value: incVal}})
		if err != nil {
			return nil, err
		}
		doc, err := setFields(filter, set)
		if err != nil {
			return nil, err
		}
		if err := im.checkUnique(table, docs, doc, -1); err != nil {
			return nil, err
		}
		res = doc
		return append(docs, doc), nil
	})
	if err != nil {
		return err
	}
	return mongoclient.Unmarshal(res, result)
}

func (im *memory) EnsureIndexes(context ctx.Ctx, indexes ...Index) error {
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, idx := range indexes {
		if !idx.Unique {
			continue
		}
		fields := make([]string, len(idx.Fields))
		for i, f := range idx.Fields {
			fields[i] = strings.TrimPrefix(f, "-")
		}
		im.uniques[idx.Table] = append(im.uniques[idx.Table], fields)
	}
	return nil
}

// checkUnique verifies doc against the unique indexes of table, skip is the index of the document being replaced
func (im *memory) checkUnique(table domain.Table, docs []bson.Raw, doc bson.Raw, skip int) error {
	for _, fields := range im.uniques[table] {
		for i, d := range docs {
			if i == skip {
				continue
			}
			same := true
			for _, f := range fields {
				if compareValues(d.Lookup(f), doc.Lookup(f)) != 0 {
					same = false
					break
				}
			}
			if same {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

func (im *memory) InTransaction(context ctx.Ctx) bool {
	return txOf(context) != nil
}

func (im *memory) RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error {
	if im.InTransaction(context) {
		return run(context)
	}

	select {
	case <-context.Done():
		return context.Err()
	case im.txSem <- struct{}{}:
	}
	defer func() { <-im.txSem }()

	tx := &memTx{base: im.snapshot(), tables: map[domain.Table][]bson.Raw{}}
	if err := run(ctx.From(context, contextWithTx(context, tx))); err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	staged := map[domain.Table][]bson.Raw{}
	for _, op := range tx.log {
		docs, ok := staged[op.table]
		if !ok {
			docs = copyDocs(im.tables[op.table])
		}
		docs, err := op.fn(docs)
		if err != nil {
			context.WithField("err", err).WithField("table", op.table).Error("RunWithTransaction: commit failed")
			return err
		}
		staged[op.table] = docs
	}
	for table, docs := range staged {
		im.tables[table] = docs
	}
	return nil
}

// snapshot captures the committed tables. Writes replace table slices and
// documents instead of changing them, so the captured slices never change.
func (im *memory) snapshot() map[domain.Table][]bson.Raw {
	im.mu.RLock()
	defer im.mu.RUnlock()
	res := make(map[domain.Table][]bson.Raw, len(im.tables))
	for table, docs := range im.tables {
		res[table] = docs
	}
	return res
}

func contextWithTx(parent context.Context, tx *memTx) context.Context {
	return context.WithValue(parent, memTxKey{}, tx)
}

// matches reports whether every field of filter equals the field of doc
func matches(doc, filter bson.Raw) bool {
	elems, err := filter.Elements()
	if err != nil {
		return false
	}
	for _, e := range elems {
		v, err := doc.LookupErr(e.Key())
		if err != nil {
			if e.Value().Type == bsontype.Null {
				continue
			}
			return false
		}
		if compareValues(v, e.Value()) != 0 {
			return false
		}
	}
	return true
}

// setFields returns doc with the fields of set replaced or appended
func setFields(doc, set bson.Raw) (bson.Raw, error) {
	setElems, err := set.Elements()
	if err != nil {
		return nil, err
	}
	updates := map[string]bson.RawValue{}
	for _, e := range setElems {
		updates[e.Key()] = e.Value()
	}

	docElems, err := doc.Elements()
	if err != nil {
		return nil, err
	}
	d := bson.D{}
	for _, e := range docElems {
		if v, ok := updates[e.Key()]; ok {
			d = append(d, bson.E{Key: e.Key(), Value: v})
			delete(updates, e.Key())
		} else {
			d = append(d, bson.E{Key: e.Key(), Value: e.Value()})
		}
	}
	for _, e := range setElems {
		if _, ok := updates[e.Key()]; ok {
			d = append(d, bson.E{Key: e.Key(), Value: e.Value()})
		}
	}
	return bson.Marshal(d)
}

func asInt64(v bson.RawValue) (int64, bool) {
	switch v.Type {
	case bsontype.Int32:
		return int64(v.Int32()), true
	case bsontype.Int64:
		return v.Int64(), true
	}
	return 0, false
}

func asFloat64(v bson.RawValue) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	if v.Type == bsontype.Double {
		return v.Double(), true
	}
	return 0, false
}

func addValues(cur, inc bson.RawValue) (interface{}, error) {
	if cur.Type == 0 || cur.Type == bsontype.Null {
		return inc, nil
	}
	a, aInt := asInt64(cur)
	b, bInt := asInt64(inc)
	if aInt && bInt {
		return a + b, nil
	}
	fa, okA := asFloat64(cur)
	fb, okB := asFloat64(inc)
	if !okA || !okB {
		return nil, fmt.Errorf("cannot increment %v by %v", cur.Type, inc.Type)
	}
	return fa + fb, nil
}

// compareValues orders numbers numerically and the other types by their raw content,
// values of different kinds are ordered by type
func compareValues(a, b bson.RawValue) int {
	fa, okA := asFloat64(a)
	fb, okB := asFloat64(b)
	if okA && okB {
		ia, intA := asInt64(a)
		ib, intB := asInt64(b)
		if intA && intB {
			return cmpInt64(ia, ib)
		}
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	if a.Type != b.Type {
		return int(a.Type) - int(b.Type)
	}
	switch a.Type {
	case bsontype.String:
		return strings.Compare(a.StringValue(), b.StringValue())
	case bsontype.DateTime:
		return cmpInt64(a.DateTime(), b.DateTime())
	case bsontype.Boolean:
		if a.Boolean() == b.Boolean() {
			return 0
		} else if b.Boolean() {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Value, b.Value)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
