package filesystem_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/example/mapgen/internal/adapters/filesystem"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ports/secondary"
)

const userMapper = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE mapper PUBLIC "-//mybatis.org//DTD Mapper 3.0//EN" "http://mybatis.org/dtd/mybatis-3-mapper.dtd">
<mapper namespace="com.example.UserMapper">
  <select id="findById" resultType="com.example.User">
    SELECT * FROM users WHERE id = #{id}
  </select>
</mapper>
`

// projectDir lays out a small source tree and returns its canonical root.
func projectDir(t *testing.T) string {
	t.Helper()
	root, err := filesystem.Canonical(t.TempDir())
	require.NoError(t, err)

	files := map[string]string{
		"src/main/resources/mapper/UserMapper.xml":  userMapper,
		"src/main/resources/mapper/OrderMapper.xml": `<mapper namespace="com.example.OrderMapper"/>`,
		"legacy/UserMapper.xml":                     `<mapper namespace="com.example.UserMapper"></mapper>`,
		"src/main/resources/logback.xml":            `<configuration><root level="info"/></configuration>`,
		"src/main/resources/broken.xml":             `<mapper namespace="com.example.Broken">`,
		"target/classes/mapper/UserMapper.xml":      userMapper,
		"README.md":                                 "<mapper namespace=\"not.Xml\"/>",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func newScanner(root string) *filesystem.Scanner {
	return filesystem.NewScanner(filesystem.ScanOptions{
		Roots:   []string{root},
		Exclude: []string{"target", ".git"},
		Workers: 3,
	}, nil)
}

// openDocument looks up the document at path through its namespace, which the
// fixtures derive from the file name.
func openDocument(store *filesystem.DocumentStore, path string) (secondary.MappingDocument, error) {
	ns := "com.example." + strings.TrimSuffix(filepath.Base(path), ".xml")
	docs, err := store.FindDocumentsByNamespace(context.Background(), ns)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.Path() == path {
			return doc, nil
		}
	}
	return nil, errors.Newf("no mapper document at %s", path)
}

func TestScanner_Scan(t *testing.T) {
	root := projectDir(t)

	records, err := newScanner(root).Scan(context.Background())
	require.NoError(t, err)

	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.Path
	}
	assert.Equal(t, []string{
		filepath.Join(root, "legacy/UserMapper.xml"),
		filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml"),
		filepath.Join(root, "src/main/resources/mapper/UserMapper.xml"),
	}, paths)

	user := records[2]
	assert.Equal(t, "com.example.UserMapper", user.Namespace)
	assert.Equal(t, []string{"findById"}, user.StatementIDs)
	assert.Equal(t, int64(len(userMapper)), user.Size)
	assert.NotEmpty(t, user.ModTime)
}

func TestScanner_ScanFile(t *testing.T) {
	root := projectDir(t)
	s := newScanner(root)
	ctx := context.Background()

	rec, err := s.ScanFile(ctx, filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "com.example.OrderMapper", rec.Namespace)
	assert.Empty(t, rec.StatementIDs)

	rec, err = s.ScanFile(ctx, filepath.Join(root, "src/main/resources/logback.xml"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = s.ScanFile(ctx, filepath.Join(root, "nope.xml"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = s.ScanFile(ctx, filepath.Join(root, "src/main/resources/broken.xml"))
	assert.Error(t, err)
}

func TestScanner_CancelledContext(t *testing.T) {
	root := projectDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newScanner(root).Scan(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDocumentStore_FindDocumentsByNamespace(t *testing.T) {
	root := projectDir(t)
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)

	docs, err := store.FindDocumentsByNamespace(context.Background(), "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.Join(root, "legacy/UserMapper.xml"), docs[0].Path())
	assert.Equal(t, filepath.Join(root, "src/main/resources/mapper/UserMapper.xml"), docs[1].Path())
	assert.Equal(t, "com.example.UserMapper", docs[1].Namespace())

	none, err := store.FindDocumentsByNamespace(context.Background(), "com.example.Missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMappingDocument_FindElementByID(t *testing.T) {
	root := projectDir(t)
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	doc, err := openDocument(store, filepath.Join(root, "src/main/resources/mapper/UserMapper.xml"))
	require.NoError(t, err)

	el, err := doc.FindElementByID(context.Background(), "findById")
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, statement.KindSelect, el.Kind)
	assert.Equal(t, 4, el.Location.Line)
	assert.Equal(t, 10, el.Location.Column)
	assert.Equal(t, doc.Path(), el.Location.Path)

	missing, err := doc.FindElementByID(context.Background(), "deleteById")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := doc.Elements(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "findById", all[0].ID)
}

func TestMappingDocument_AppendElement(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/UserMapper.xml")
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	doc, err := openDocument(store, path)
	require.NoError(t, err)

	spec := statement.ElementSpec{Kind: statement.KindDelete, ID: "deleteById", Body: statement.PlaceholderBody}
	res, err := doc.AppendElement(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "deleteById", res.Element.ID)
	assert.Equal(t, 7, res.Element.Location.Line)
	assert.Equal(t, 10, res.Element.Location.Column)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := userMapper[:len(userMapper)-len("</mapper>\n")] + "  <delete id=\"deleteById\"> </delete>\n</mapper>\n"
	assert.Equal(t, want, string(data))
	assert.Equal(t, "<delete", string(data[res.Element.Location.Offset-len("<delete"):res.Element.Location.Offset]))

	// A second append with the same id leaves the file as it is.
	again, err := doc.AppendElement(context.Background(), spec)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, res.Element.Location, again.Element.Location)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, after)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestMappingDocument_AppendElementSelfClosingRoot(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml")
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	doc, err := openDocument(store, path)
	require.NoError(t, err)

	res, err := doc.AppendElement(context.Background(), statement.ElementSpec{
		Kind:       statement.KindSelect,
		ID:         "findAll",
		Attributes: []statement.Attribute{{Name: "resultType", Value: "com.example.Order"}},
		Body:       statement.PlaceholderBody,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"<mapper namespace=\"com.example.OrderMapper\">\n    <select id=\"findAll\" resultType=\"com.example.Order\"> </select>\n</mapper>",
		string(data))
}

func TestMappingDocument_AppendElementReadOnly(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/UserMapper.xml")
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	doc, err := openDocument(store, path)
	require.NoError(t, err)
	require.NoError(t, os.Chmod(path, 0o444))

	_, err = doc.AppendElement(context.Background(), statement.ElementSpec{Kind: statement.KindInsert, ID: "insertUser", Body: " "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, statement.ErrDocumentMutationFailed))
	assert.NotEmpty(t, errors.GetAllHints(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, userMapper, string(data))
}

func TestMappingDocument_AppendElementCancelled(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/UserMapper.xml")
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	doc, err := openDocument(store, path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = doc.AppendElement(ctx, statement.ElementSpec{Kind: statement.KindInsert, ID: "insertUser", Body: " "})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, userMapper, string(data))
}

func TestMappingDocument_ConcurrentAppendsCreateOnce(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/UserMapper.xml")
	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	spec := statement.ElementSpec{Kind: statement.KindUpdate, ID: "updateUser", Body: " "}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := openDocument(store, path)
			if !assert.NoError(t, err) {
				return
			}
			res, err := doc.AppendElement(context.Background(), spec)
			if !assert.NoError(t, err) {
				return
			}
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	doc, err := openDocument(store, path)
	require.NoError(t, err)
	els, err := doc.Elements(context.Background())
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

// memoryIndex is an in-memory secondary.MapperIndex.
type memoryIndex struct {
	mu      sync.Mutex
	records map[string]*secondary.MapperDocumentRecord
	stamp   string
	lookups int
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{records: make(map[string]*secondary.MapperDocumentRecord)}
}

func (m *memoryIndex) Upsert(ctx context.Context, rec *secondary.MapperDocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Path] = rec
	return nil
}

func (m *memoryIndex) FindByNamespace(ctx context.Context, ns string) ([]*secondary.MapperDocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	var out []*secondary.MapperDocumentRecord
	for _, r := range m.records {
		if r.Namespace == ns {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *memoryIndex) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, path)
	return nil
}

func (m *memoryIndex) List(ctx context.Context) ([]*secondary.MapperDocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.MapperDocumentRecord
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *memoryIndex) Prune(ctx context.Context, keep []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]bool, len(keep))
	for _, k := range keep {
		set[k] = true
	}
	n := 0
	for p := range m.records {
		if !set[p] {
			delete(m.records, p)
			n++
		}
	}
	return n, nil
}

func (m *memoryIndex) Stamp(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stamp, nil
}

func (m *memoryIndex) SetStamp(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp = fingerprint
	return nil
}

func TestDocumentStore_UsesAndRefreshesIndex(t *testing.T) {
	root := projectDir(t)
	index := newMemoryIndex()
	store := filesystem.NewDocumentStore(newScanner(root), index, nil)
	ctx := context.Background()

	// Empty index: full scan populates it.
	docs, err := store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	all, _ := index.List(ctx)
	assert.Len(t, all, 3)

	// Index hit: answered from the index after verifying each file.
	docs, err = store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// A file whose namespace changed on disk makes the entry stale.
	legacy := filepath.Join(root, "legacy/UserMapper.xml")
	require.NoError(t, os.WriteFile(legacy, []byte(`<mapper namespace="com.example.Renamed"/>`), 0o644))

	docs, err = store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, filepath.Join(root, "src/main/resources/mapper/UserMapper.xml"), docs[0].Path())

	renamed, err := index.FindByNamespace(ctx, "com.example.Renamed")
	require.NoError(t, err)
	require.Len(t, renamed, 1)
	assert.Equal(t, legacy, renamed[0].Path)
}

func TestDocumentStore_SeesMapperAddedAfterIndexing(t *testing.T) {
	root := projectDir(t)
	index := newMemoryIndex()
	store := filesystem.NewDocumentStore(newScanner(root), index, nil)
	ctx := context.Background()

	docs, err := store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.NotEmpty(t, index.stamp)
	lookups := index.lookups

	// Answered from the index while nothing on disk changed.
	docs, err = store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, lookups+1, index.lookups)

	added := filepath.Join(root, "src/test/resources/UserMapper.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(added), 0o755))
	require.NoError(t, os.WriteFile(added, []byte(userMapper), 0o644))

	docs, err = store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	paths := []string{docs[0].Path(), docs[1].Path(), docs[2].Path()}
	assert.Contains(t, paths, added)

	indexed, err := index.FindByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)
	assert.Len(t, indexed, 3)
}

func TestDocumentStore_TrustsEmptyStampedIndex(t *testing.T) {
	root := projectDir(t)
	index := newMemoryIndex()
	scanner := newScanner(root)
	store := filesystem.NewDocumentStore(scanner, index, nil)
	ctx := context.Background()

	_, err := store.FindDocumentsByNamespace(ctx, "com.example.UserMapper")
	require.NoError(t, err)

	// A stamped index with no entry for the namespace is a definite miss.
	require.NoError(t, index.Remove(ctx, filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml")))
	docs, err := store.FindDocumentsByNamespace(ctx, "com.example.OrderMapper")
	require.NoError(t, err)
	assert.Empty(t, docs)

	// An unstamped index is never trusted.
	require.NoError(t, index.SetStamp(ctx, ""))
	docs, err = store.FindDocumentsByNamespace(ctx, "com.example.OrderMapper")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	fp, err := scanner.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, fp, index.stamp)
}

func TestScanner_Fingerprint(t *testing.T) {
	root := projectDir(t)
	scanner := newScanner(root)
	ctx := context.Background()

	first, err := scanner.Fingerprint(ctx)
	require.NoError(t, err)
	again, err := scanner.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Excluded directories and non-xml files do not count.
	require.NoError(t, os.WriteFile(filepath.Join(root, "target/classes/mapper/Extra.xml"), []byte(userMapper), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "NOTES.md"), []byte("x"), 0o644))
	unchanged, err := scanner.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, unchanged)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src/main/resources/Extra.xml"), []byte(userMapper), 0o644))
	changed, err := scanner.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestMappingDocument_WarnsOnDuplicateIDs(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<mapper namespace="com.example.OrderMapper">
  <select id="findAll">SELECT 1</select>
  <select id="findAll">SELECT 2</select>
</mapper>`), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	store := filesystem.NewDocumentStore(newScanner(root), nil, zap.New(core).Sugar())
	doc, err := openDocument(store, path)
	require.NoError(t, err)

	els, err := doc.Elements(context.Background())
	require.NoError(t, err)
	assert.Len(t, els, 2)

	warned := logs.FilterMessage("mapper has duplicate statement ids").All()
	require.Len(t, warned, 1)
	assert.Equal(t, path, warned[0].ContextMap()["path"])
}

func TestMappingDocument_AppendKeepsDeclaredEncoding(t *testing.T) {
	root := projectDir(t)
	path := filepath.Join(root, "src/main/resources/mapper/OrderMapper.xml")
	doc := "<?xml version=\"1.0\" encoding=\"GBK\"?>\n<mapper namespace=\"com.example.OrderMapper\">\n  <!-- 订单 -->\n</mapper>\n"
	raw, err := simplifiedchinese.GBK.NewEncoder().String(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	store := filesystem.NewDocumentStore(newScanner(root), nil, nil)
	mapper, err := openDocument(store, path)
	require.NoError(t, err)

	res, err := mapper.AppendElement(context.Background(), statement.ElementSpec{Kind: statement.KindDelete, ID: "deleteById", Body: " "})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 4, res.Element.Location.Line)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	require.NoError(t, err)
	assert.Equal(t, strings.Replace(doc, "</mapper>", "    <delete id=\"deleteById\"> </delete>\n</mapper>", 1), string(text))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.xml")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, filesystem.WriteFileAtomic(path, []byte("new"), 0o640))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := filesystem.WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "m.xml"), []byte("x"), 0o644)
	assert.Error(t, err)
}
