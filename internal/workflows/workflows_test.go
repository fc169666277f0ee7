package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PolarWolf314/sealnote/internal/audit"
	"github.com/PolarWolf314/sealnote/internal/configs"
	"github.com/PolarWolf314/sealnote/internal/document"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
	"github.com/PolarWolf314/sealnote/internal/keys"
	"github.com/PolarWolf314/sealnote/internal/service"
)

var testKDF = keys.KDFParams{Time: 1, Memory: 64, Threads: 1}

// scriptedPrompt answers passphrase prompts by key name.
type scriptedPrompt struct {
	mu      sync.Mutex
	answers map[string]string
	calls   map[string]int
}

func newScriptedPrompt() *scriptedPrompt {
	return &scriptedPrompt{answers: make(map[string]string), calls: make(map[string]int)}
}

func (p *scriptedPrompt) PromptPassphrase(ctx context.Context, rec keys.Record) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[rec.Name]++
	answer, ok := p.answers[rec.Name]
	if !ok || answer == "" {
		return "", false, nil
	}
	return answer, true, nil
}

func (p *scriptedPrompt) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

type keyParams struct {
	req keys.Request
	ok  bool
}

func (k *keyParams) PromptKeyParameters(ctx context.Context, settings *configs.Settings) (keys.Request, bool, error) {
	return k.req, k.ok, nil
}

type memoryAudit struct {
	entries []audit.Entry
}

func (m *memoryAudit) Log(entry audit.Entry) {
	m.entries = append(m.entries, entry)
}

type testEnv struct {
	svc    *service.Service
	store  *configs.MemoryStore
	prompt *scriptedPrompt
	params *keyParams
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  configs.NewMemoryStore(nil),
		prompt: newScriptedPrompt(),
		params: &keyParams{},
		dir:    t.TempDir(),
	}
	svc, err := service.New(service.Options{
		Store:         env.store,
		Passphrases:   env.prompt,
		KeyParameters: env.params,
		KDF:           testKDF,
	})
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	t.Cleanup(svc.Shutdown)
	env.svc = svc
	return env
}

// addKey creates a key and drops its authorization so the next use prompts.
func (e *testEnv) addKey(t *testing.T, name, passphrase string) string {
	t.Helper()
	id, err := e.svc.CreateKeyWithRequest(context.Background(), keys.Request{Passphrase: passphrase, Name: name})
	if err != nil {
		t.Fatalf("CreateKeyWithRequest failed: %v", err)
	}
	e.svc.ClearAuthorizations()
	e.prompt.answers[name] = passphrase
	return id
}

func (e *testEnv) writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func tagged(keyID, body string) string {
	return "---\ntitle: Notes\n.kid: " + keyID + "\n---\n" + body
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "correct-horse")
	path := env.writeDoc(t, "notes.md", tagged(id, "hello world\n"))

	auditLog := &memoryAudit{}
	enc, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, Audit: auditLog})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(enc.Encrypted) != 1 || enc.Encrypted[0] != path {
		t.Fatalf("Encrypted = %v, want [%s]", enc.Encrypted, path)
	}
	if enc.KeyIDs[path] != id {
		t.Errorf("KeyIDs[%s] = %q, want %q", path, enc.KeyIDs[path], id)
	}

	content := readFile(t, path)
	if strings.Contains(content, "hello world") {
		t.Error("Encrypted document still contains the plaintext")
	}
	if !strings.Contains(content, "title: Notes") {
		t.Error("Front matter was not preserved")
	}
	if !strings.Contains(content, document.MessagePEMType) {
		t.Error("Body is not armored")
	}

	dec, err := Decrypt(context.Background(), env.svc, DecryptOptions{Root: env.dir, Audit: auditLog})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if len(dec.Decrypted) != 1 {
		t.Fatalf("Decrypted = %v, want one file", dec.Decrypted)
	}
	if got := readFile(t, path); got != tagged(id, "hello world\n") {
		t.Errorf("Round trip content = %q", got)
	}

	if env.prompt.Calls("work") != 1 {
		t.Errorf("Prompted %d times, want 1", env.prompt.Calls("work"))
	}
	if len(auditLog.entries) != 2 || auditLog.entries[0].Operation != "encrypt" || auditLog.entries[1].Operation != "decrypt" {
		t.Errorf("Audit entries = %+v", auditLog.entries)
	}
}

func TestEncrypt_ForcedKeyTagsDocument(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "personal", "pw")
	path := env.writeDoc(t, "plain.md", "no front matter\n")

	if _, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, Patterns: []string{"plain.md"}, KeyRef: "personal"}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	doc, err := document.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if doc.KeyID(".kid") != id {
		t.Errorf("KeyID = %q, want %q", doc.KeyID(".kid"), id)
	}
	if !doc.IsEncrypted() {
		t.Error("Document was not encrypted")
	}
}

func TestEncrypt_SkipsUnsuitableDocuments(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	env.writeDoc(t, "untagged.md", "body\n")
	env.writeDoc(t, "unknown.md", tagged("not-a-key", "body\n"))
	good := env.writeDoc(t, "good.md", tagged(id, "body\n"))

	result, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(result.Encrypted) != 1 || result.Encrypted[0] != good {
		t.Errorf("Encrypted = %v, want [%s]", result.Encrypted, good)
	}

	reasons := make(map[string]error)
	for _, s := range result.Skipped {
		reasons[filepath.Base(s.Path)] = s.Reason
	}
	if !errors.Is(reasons["untagged.md"], kerrors.ErrNoKeyID) {
		t.Errorf("untagged.md reason = %v", reasons["untagged.md"])
	}
	if !errors.Is(reasons["unknown.md"], kerrors.ErrUnknownKey) {
		t.Errorf("unknown.md reason = %v", reasons["unknown.md"])
	}

	again, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, Patterns: []string{"good.md"}})
	if err != nil {
		t.Fatalf("second Encrypt failed: %v", err)
	}
	if len(again.Skipped) != 1 || !errors.Is(again.Skipped[0].Reason, kerrors.ErrAlreadyEncrypted) {
		t.Errorf("Skipped = %+v, want already encrypted", again.Skipped)
	}
}

func TestEncrypt_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	path := env.writeDoc(t, "notes.md", tagged(id, "secret\n"))

	result, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, DryRun: true})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !result.DryRun || len(result.Encrypted) != 1 {
		t.Errorf("Result = %+v", result)
	}
	if got := readFile(t, path); got != tagged(id, "secret\n") {
		t.Errorf("Dry run modified the document: %q", got)
	}
	if env.prompt.Calls("work") != 0 {
		t.Error("Dry run should not prompt")
	}
}

func TestEncrypt_DismissedPromptLeavesFiles(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	env.prompt.answers["work"] = ""
	path := env.writeDoc(t, "notes.md", tagged(id, "secret\n"))

	_, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir})
	if !errors.Is(err, kerrors.ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized, got %v", err)
	}
	if got := readFile(t, path); got != tagged(id, "secret\n") {
		t.Error("Document changed after a dismissed prompt")
	}
}

func TestEncrypt_WrongPassphrase(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "right")
	env.prompt.answers["work"] = "wrong"
	env.writeDoc(t, "notes.md", tagged(id, "secret\n"))

	_, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir})
	if !errors.Is(err, kerrors.ErrPassphraseRejected) {
		t.Fatalf("Expected ErrPassphraseRejected, got %v", err)
	}
}

func TestEncrypt_NoDocuments(t *testing.T) {
	env := newTestEnv(t)

	_, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir})
	if !errors.Is(err, kerrors.ErrNoFilesFound) {
		t.Fatalf("Expected ErrNoFilesFound, got %v", err)
	}
}

func TestEncrypt_UnknownKeyRef(t *testing.T) {
	env := newTestEnv(t)
	env.writeDoc(t, "notes.md", "body\n")

	_, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, KeyRef: "missing"})
	if !errors.Is(err, kerrors.ErrUnknownKey) {
		t.Fatalf("Expected ErrUnknownKey, got %v", err)
	}
}

func TestEncrypt_MultipleKeysPromptOncePerKey(t *testing.T) {
	env := newTestEnv(t)
	work := env.addKey(t, "work", "pw-work")
	home := env.addKey(t, "home", "pw-home")
	env.writeDoc(t, "a.md", tagged(work, "a\n"))
	env.writeDoc(t, "b.md", tagged(work, "b\n"))
	env.writeDoc(t, "c.md", tagged(home, "c\n"))

	result, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(result.Encrypted) != 3 {
		t.Errorf("Encrypted %d documents, want 3", len(result.Encrypted))
	}
	if env.prompt.Calls("work") != 1 || env.prompt.Calls("home") != 1 {
		t.Errorf("Prompt calls work=%d home=%d, want 1 each", env.prompt.Calls("work"), env.prompt.Calls("home"))
	}
}

func TestDecrypt_SkipsPlainDocuments(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	env.writeDoc(t, "plain.md", tagged(id, "already plain\n"))

	result, err := Decrypt(context.Background(), env.svc, DecryptOptions{Root: env.dir})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if len(result.Decrypted) != 0 {
		t.Errorf("Decrypted = %v, want none", result.Decrypted)
	}
	if len(result.Skipped) != 1 || !errors.Is(result.Skipped[0].Reason, kerrors.ErrNotEncrypted) {
		t.Errorf("Skipped = %+v", result.Skipped)
	}
}

func TestEncryptDecrypt_EmbeddedArmorIsPlaintext(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	sealedPath := env.writeDoc(t, "a.md", tagged(id, "secret\n"))

	if _, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, Patterns: []string{"a.md"}}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	sealed, err := document.ReadFile(sealedPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	armor := string(sealed.Body)

	original := tagged(id, "my plaintext intro\n"+armor+"my plaintext outro\n")
	path := env.writeDoc(t, "b.md", original)

	enc, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir, Patterns: []string{"b.md"}})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(enc.Encrypted) != 1 || len(enc.Skipped) != 0 {
		t.Fatalf("Encrypted = %v, Skipped = %+v; want b.md encrypted", enc.Encrypted, enc.Skipped)
	}
	if strings.Contains(readFile(t, path), "my plaintext intro") {
		t.Error("Surrounding text was left in plaintext")
	}

	if _, err := Decrypt(context.Background(), env.svc, DecryptOptions{Root: env.dir, Patterns: []string{"b.md"}}); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got := readFile(t, path); got != original {
		t.Errorf("Round trip content = %q, want %q", got, original)
	}
}

func TestDecrypt_TrailingTextAfterArmorIsKept(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")
	path := env.writeDoc(t, "notes.md", tagged(id, "secret\n"))

	if _, err := Encrypt(context.Background(), env.svc, EncryptOptions{Root: env.dir}); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	appended := readFile(t, path) + "added later\n"
	if err := os.WriteFile(path, []byte(appended), 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	result, err := Decrypt(context.Background(), env.svc, DecryptOptions{Root: env.dir})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if len(result.Decrypted) != 0 {
		t.Errorf("Decrypted = %v, want none", result.Decrypted)
	}
	if len(result.Skipped) != 1 || !errors.Is(result.Skipped[0].Reason, kerrors.ErrNotEncrypted) {
		t.Errorf("Skipped = %+v", result.Skipped)
	}
	if got := readFile(t, path); got != appended {
		t.Errorf("Document changed: %q", got)
	}
}

func TestDecrypt_CorruptedBody(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")

	doc, err := document.Parse([]byte(tagged(id, "")))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	doc.SetSealedBody([]byte("this is not a ciphertext at all"))
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	env.writeDoc(t, "broken.md", string(data))

	_, err = Decrypt(context.Background(), env.svc, DecryptOptions{Root: env.dir})
	if !errors.Is(err, kerrors.ErrTransformFailed) {
		t.Fatalf("Expected ErrTransformFailed, got %v", err)
	}
}

func TestCreateKey(t *testing.T) {
	env := newTestEnv(t)
	env.params.req = keys.Request{Passphrase: "pw", Name: "journal", Hint: "the usual"}
	env.params.ok = true

	result, err := CreateKey(context.Background(), env.svc)
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if result.Dismissed {
		t.Fatal("Expected a created key")
	}
	if result.Key.Name != "journal" || result.Key.Hint != "the usual" {
		t.Errorf("Key = %+v", result.Key)
	}
	if !env.svc.Authorized(result.Key.ID) {
		t.Error("New key should be authorized")
	}
}

func TestCreateKey_Dismissed(t *testing.T) {
	env := newTestEnv(t)

	result, err := CreateKey(context.Background(), env.svc)
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if !result.Dismissed {
		t.Error("Expected Dismissed")
	}
	if len(env.svc.Keys()) != 0 {
		t.Error("No key should be created")
	}
}

func TestListKeys(t *testing.T) {
	env := newTestEnv(t)
	env.addKey(t, "beta", "pw")
	never := 0
	id, err := env.svc.CreateKeyWithRequest(context.Background(), keys.Request{Passphrase: "pw", Name: "alpha", IdleTimeout: &never})
	if err != nil {
		t.Fatalf("CreateKeyWithRequest failed: %v", err)
	}

	result, err := ListKeys(context.Background(), env.svc)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if result.DefaultIdleTimeout != configs.DefaultIdleTimeout {
		t.Errorf("DefaultIdleTimeout = %d", result.DefaultIdleTimeout)
	}
	if len(result.Keys) != 2 {
		t.Fatalf("Got %d keys, want 2", len(result.Keys))
	}

	alpha := result.Keys[0]
	if alpha.Record.ID != id || !alpha.Authorized || !alpha.Overridden || alpha.IdleTimeout != 0 {
		t.Errorf("alpha = %+v", alpha)
	}
	beta := result.Keys[1]
	if beta.Authorized || beta.Overridden {
		t.Errorf("beta = %+v", beta)
	}
}

func TestDeleteKey(t *testing.T) {
	env := newTestEnv(t)
	id := env.addKey(t, "work", "pw")

	result, err := DeleteKey(context.Background(), env.svc, DeleteKeyOptions{Ref: "work"})
	if err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if result.Key.ID != id {
		t.Errorf("Deleted %q, want %q", result.Key.ID, id)
	}
	if _, ok := env.svc.Key(id); ok {
		t.Error("Key still present")
	}

	if _, err := DeleteKey(context.Background(), env.svc, DeleteKeyOptions{Ref: "work"}); !errors.Is(err, kerrors.ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
}

func TestSetConfig(t *testing.T) {
	env := newTestEnv(t)

	settings, err := SetConfig(context.Background(), env.svc, SetConfigOptions{Name: "idle-timeout", Value: "300"})
	if err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if settings.IdleTimeout != 300 {
		t.Errorf("IdleTimeout = %d, want 300", settings.IdleTimeout)
	}

	settings, err = SetConfig(context.Background(), env.svc, SetConfigOptions{Name: "key-property", Value: "secret_key"})
	if err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if settings.KeyIDProperty != "secret_key" {
		t.Errorf("KeyIDProperty = %q", settings.KeyIDProperty)
	}
	if env.store.Saves() != 2 {
		t.Errorf("Saves = %d, want 2", env.store.Saves())
	}
}

func TestSetConfig_Errors(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		name  string
		opts  SetConfigOptions
		match error
	}{
		{"UnknownSetting", SetConfigOptions{Name: "colour", Value: "blue"}, kerrors.ErrUnknownSetting},
		{"NegativeTimeout", SetConfigOptions{Name: "idle-timeout", Value: "-1"}, kerrors.ErrInvalidSettings},
		{"NonNumericTimeout", SetConfigOptions{Name: "idle-timeout", Value: "soon"}, kerrors.ErrInvalidSettings},
		{"EmptyProperty", SetConfigOptions{Name: "key-property", Value: "  "}, kerrors.ErrInvalidSettings},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SetConfig(context.Background(), env.svc, tc.opts)
			if !errors.Is(err, tc.match) {
				t.Errorf("Expected %v, got %v", tc.match, err)
			}
		})
	}
}
