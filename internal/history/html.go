package history

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"sort"
)

// RegenerateViews rebuilds the browsable page for the active log plus one
// page per archive. The active page links to every archive page and both
// kinds carry controls wired to the coordinating service (overwrite, delete,
// upload, copy) and a poll against the revision counter so the page reloads
// itself when the log changes elsewhere.
func (s *Store) RegenerateViews(port int) error {
	entries, err := s.readEntries(s.activeJSON)
	if err != nil {
		return err
	}
	archiveKeys, err := s.collectArchiveDateKeys()
	if err != nil {
		return err
	}

	if err := s.renderPage(s.activeHTML, "Prompt History", entries, archiveKeys, port, true); err != nil {
		return err
	}

	for _, key := range archiveKeys {
		var archiveEntries []Entry
		target := s.archiveJSONPath(key)
		if _, err := os.Stat(target); err == nil {
			archiveEntries, err = s.readEntries(target)
			if err != nil {
				return err
			}
		}
		// Archive pages are plain read-only views.
		title := "Prompt History Archive " + key
		if err := s.renderPage(s.archiveHTMLPath(key), title, archiveEntries, nil, port, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) collectArchiveDateKeys() ([]string, error) {
	items, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list base dir %s: %w", s.baseDir, err)
	}
	var keys []string
	for _, item := range items {
		if key, ok := archiveDateKeyFromName(item.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (s *Store) renderPage(target, title string, entries []Entry, archiveKeys []string, port int, interactive bool) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	cards := make([]entryCard, 0, len(sorted))
	for _, e := range sorted {
		card := entryCard{ID: e.ID, TS: e.TS, Prompt: e.Prompt}
		if len(e.Images) > 0 {
			card.ImagePath = e.Images[0]
		}
		cards = append(cards, card)
	}

	links := make([]archiveLink, 0, len(archiveKeys))
	for _, key := range archiveKeys {
		links = append(links, archiveLink{Name: archivePrefix + key + ".html"})
	}

	data := pageData{
		Title:        title,
		Entries:      cards,
		ArchiveLinks: links,
		APIBase:      fmt.Sprintf("http://127.0.0.1:%d", port),
		Interactive:  interactive,
	}

	var buf bytes.Buffer
	if err := historyPageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", target, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write html %s: %w", target, err)
	}
	return nil
}

type pageData struct {
	Title        string
	Entries      []entryCard
	ArchiveLinks []archiveLink
	APIBase      string
	Interactive  bool
}

type entryCard struct {
	ID        string
	TS        string
	Prompt    string
	ImagePath string
}

// HasImage reports whether the card carries its single attached image.
func (c entryCard) HasImage() bool { return c.ImagePath != "" }

type archiveLink struct {
	Name string
}

var historyPageTemplate = template.Must(template.New("history").Parse(historyPageHTML))

const historyPageHTML = `<!doctype html>
<html lang="ja">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    :root {
      --bg: #f6f6ef;
      --panel: #ffffff;
      --line: #1f2a44;
      --accent: #cb4b16;
      --accent-2: #174c7a;
      --text: #1e1e1e;
      --muted: #666;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      color: var(--text);
      background: linear-gradient(180deg, #f7f5ec, #ece8d8);
      font-family: "Yu Mincho", "Hiragino Mincho ProN", serif;
    }
    .wrap { max-width: 980px; margin: 32px auto; padding: 0 16px 32px; }
    h1 { margin: 0 0 10px; font-size: 38px; letter-spacing: 0.04em; }
    h2 { margin: 0 0 8px; font-size: 20px; }
    .runtime-note {
      margin: 0 0 16px;
      border: 1px solid #d8c78d;
      background: #fff7dc;
      color: #5c4a1f;
      padding: 8px 10px;
      font-family: "Yu Gothic UI", sans-serif;
      font-size: 13px;
      line-height: 1.5;
    }
    .archives { margin: 0 0 16px; border: 1px solid var(--line); background: #fff; padding: 10px; }
    .archive-list { display: flex; gap: 8px; flex-wrap: wrap; }
    .archive-link {
      font-family: "Yu Gothic UI", sans-serif;
      border: 1px solid var(--line);
      padding: 4px 8px;
      text-decoration: none;
      color: var(--accent-2);
      background: #f8f8f8;
      font-size: 13px;
    }
    .entry {
      border: 2px solid var(--line);
      background: var(--panel);
      margin-bottom: 16px;
      padding: 12px;
      box-shadow: 6px 6px 0 #d8d2bf;
    }
    .entry-header { display: flex; align-items: flex-start; margin-bottom: 10px; }
    .entry-body {
      display: grid;
      grid-template-columns: minmax(0, 1fr) minmax(0, 1fr);
      gap: 14px;
      align-items: start;
    }
    .prompt-pane, .media-pane { min-width: 0; }
    .media-pane { display: flex; flex-direction: column; align-items: stretch; }
    .timestamp { font-weight: 700; color: var(--accent-2); }
    .btn {
      border: 2px solid var(--line);
      background: #fff;
      color: var(--line);
      padding: 6px 12px;
      cursor: pointer;
      font-weight: 700;
    }
    .btn:hover { background: #f4ede1; }
    .btn:disabled { cursor: not-allowed; opacity: 0.55; background: #f0eee7; }
    .overwrite-btn { border-color: var(--accent-2); color: var(--accent-2); }
    .delete-btn { border-color: var(--accent); color: var(--accent); }
    .prompt-toolbar { display: flex; gap: 8px; margin-bottom: 8px; flex-wrap: wrap; }
    .prompt-editor {
      width: 100%;
      border-left: 4px solid var(--line);
      padding: 8px 10px;
      background: #fbfaf5;
      font-family: "Yu Gothic UI", sans-serif;
      font-size: 14px;
      line-height: 1.5;
      min-height: 156px;
      resize: vertical;
      white-space: pre-wrap;
      word-break: break-word;
    }
    .upload { margin-top: 0; }
    .dropzone {
      border: 2px dashed var(--line);
      padding: 10px;
      text-align: center;
      cursor: pointer;
      background: #fefcf3;
      font-family: "Yu Gothic UI", sans-serif;
      display: flex;
      align-items: center;
      justify-content: center;
    }
    .dropzone.needs-image { min-height: 96px; }
    .dropzone.dragover { background: #fff4d3; }
    .file-input { display: none; }
    .images { margin-top: 10px; font-family: "Yu Gothic UI", sans-serif; }
    .image-item { width: 100%; display: flex; flex-direction: column; gap: 6px; }
    .thumb-image-link { display: block; border: 1px solid var(--line); background: #f8f8f8; padding: 6px; }
    .thumb-image { display: block; width: 100%; max-height: 240px; object-fit: contain; background: #fff; }
    .thumb-path {
      border: 1px solid var(--line);
      padding: 4px 8px;
      font-size: 12px;
      text-decoration: none;
      color: var(--accent-2);
      background: #f8f8f8;
      overflow: hidden;
      text-overflow: ellipsis;
      white-space: nowrap;
    }
    .muted { color: var(--muted); }
    .empty { padding: 24px; border: 1px dashed var(--line); background: #fff; }
    @media (max-width: 720px) {
      h1 { font-size: 30px; }
      .entry-body { grid-template-columns: minmax(0, 1fr); }
      .prompt-editor { min-height: 0; }
    }
  </style>
</head>
<body>
  <main class="wrap">
    <h1>{{.Title}}</h1>
{{- if .Interactive}}
    <p class="runtime-note">※このページの上書き・削除・画像追加機能は、アプリ起動中のみ使用できます。</p>
{{- end}}
{{- if .ArchiveLinks}}
    <section class="archives">
      <h2>Archives</h2>
      <div class="archive-list">
{{- range .ArchiveLinks}}
        <a class="archive-link" href="{{.Name}}" target="_blank" rel="noopener noreferrer">{{.Name}}</a>
{{- end}}
      </div>
    </section>
{{- end}}
{{- if not .Entries}}
    <p class="empty">履歴はまだありません。</p>
{{- end}}
{{- range .Entries}}
    <article class="entry" data-history-id="{{.ID}}" data-image-path="{{.ImagePath}}">
      <header class="entry-header"><span class="timestamp">{{.TS}}</span></header>
      <div class="entry-body">
        <section class="prompt-pane">
{{- if $.Interactive}}
          <div class="prompt-toolbar">
            <button class="btn overwrite-btn">上書き</button>
            <button class="btn copy-btn">コピー</button>
            <button class="btn delete-btn">削除</button>
          </div>
          <textarea class="prompt-editor" spellcheck="false">{{.Prompt}}</textarea>
{{- else}}
          <textarea class="prompt-editor" spellcheck="false" readonly>{{.Prompt}}</textarea>
{{- end}}
        </section>
        <section class="media-pane">
{{- if $.Interactive}}
          <section class="upload" data-history-id="{{.ID}}">
            <div class="dropzone{{if not .HasImage}} needs-image{{end}}">
              {{- if .HasImage}}画像追加済み（差し替えはD＆Dまたはクリック）{{else}}画像追加: ドラッグ&amp;ドロップ または クリック{{end}}
            </div>
            <input class="file-input" type="file" accept=".png,.jpg,.jpeg,.webp" />
          </section>
{{- end}}
          <section class="images">
{{- if .HasImage}}
            <div class="image-item">
              <a class="thumb-image-link" href="{{.ImagePath}}" target="_blank" rel="noopener noreferrer"><img class="thumb-image" src="{{.ImagePath}}" alt="history image" loading="lazy" /></a>
              <a class="thumb-path" href="{{.ImagePath}}" target="_blank" rel="noopener noreferrer">{{.ImagePath}}</a>
            </div>
{{- else}}
            <span class="muted">画像なし</span>
{{- end}}
          </section>
        </section>
      </div>
    </article>
{{- end}}
  </main>
{{- if .Interactive}}
  <script>
    const API_BASE = {{.APIBase}};
    const HISTORY_REVISION_POLL_MS = 1000;
    let lastHistoryRevision = null;
    let historyRevisionPolling = false;
    async function parseApiResponse(res, fallback) {
      let data = {};
      try {
        data = await res.json();
      } catch (_) {
        data = {};
      }
      if (!res.ok || !data.ok) {
        throw new Error(data.error || fallback);
      }
      return data;
    }
    async function pollHistoryRevision() {
      if (historyRevisionPolling) {
        return;
      }
      historyRevisionPolling = true;
      try {
        const res = await fetch(API_BASE + "/app/history-revision", { method: "GET", cache: "no-store" });
        const data = await parseApiResponse(res, "history revision failed");
        const revision = Number(data.revision);
        if (!Number.isFinite(revision)) {
          throw new Error("invalid history revision");
        }
        if (lastHistoryRevision === null) {
          lastHistoryRevision = revision;
          return;
        }
        if (revision !== lastHistoryRevision) {
          location.reload();
        }
      } catch (_) {
        // App may be stopped; keep the current page state.
      } finally {
        historyRevisionPolling = false;
      }
    }
    function getPromptValue(entry) {
      const editor = entry.querySelector(".prompt-editor");
      return editor ? editor.value : "";
    }
    for (const entry of document.querySelectorAll(".entry")) {
      const historyId = entry.dataset.historyId;
      const editor = entry.querySelector(".prompt-editor");
      const overwriteBtn = entry.querySelector(".overwrite-btn");
      const copyBtn = entry.querySelector(".copy-btn");
      const deleteBtn = entry.querySelector(".delete-btn");
      const upload = entry.querySelector(".upload");
      const dropzone = upload ? upload.querySelector(".dropzone") : null;
      const fileInput = upload ? upload.querySelector(".file-input") : null;

      overwriteBtn.addEventListener("click", async () => {
        try {
          const res = await fetch(API_BASE + "/update", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ history_id: historyId, prompt: getPromptValue(entry) })
          });
          const data = await parseApiResponse(res, "update failed");
          if (editor && typeof data.prompt === "string") {
            editor.value = data.prompt;
          }
        } catch (err) {
          alert("上書き失敗: " + err.message);
        }
      });
      copyBtn.addEventListener("click", async () => {
        try {
          await navigator.clipboard.writeText(getPromptValue(entry));
        } catch (err) {
          alert("コピー失敗: " + err.message);
        }
      });
      deleteBtn.addEventListener("click", async () => {
        if (!confirm("プロンプトを削除しますか？（画像は削除されません）")) {
          return;
        }
        try {
          const res = await fetch(API_BASE + "/delete", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ history_id: historyId })
          });
          await parseApiResponse(res, "delete failed");
          location.reload();
        } catch (err) {
          alert("削除失敗: " + err.message);
        }
      });
      if (!dropzone || !fileInput) {
        continue;
      }
      const handleFile = async (file) => {
        if (!file) return;
        try {
          const form = new FormData();
          form.append("history_id", historyId);
          form.append("file", file);
          const res = await fetch(API_BASE + "/upload", { method: "POST", body: form });
          await parseApiResponse(res, "upload failed");
          location.reload();
        } catch (err) {
          alert("アップロード失敗: " + err.message);
        } finally {
          fileInput.value = "";
        }
      };
      dropzone.addEventListener("click", () => fileInput.click());
      fileInput.addEventListener("change", () => handleFile(fileInput.files && fileInput.files[0]));
      dropzone.addEventListener("dragover", (event) => {
        event.preventDefault();
        dropzone.classList.add("dragover");
      });
      dropzone.addEventListener("dragleave", () => dropzone.classList.remove("dragover"));
      dropzone.addEventListener("drop", (event) => {
        event.preventDefault();
        dropzone.classList.remove("dragover");
        handleFile(event.dataTransfer && event.dataTransfer.files && event.dataTransfer.files[0]);
      });
    }
    void pollHistoryRevision();
    setInterval(() => {
      void pollHistoryRevision();
    }, HISTORY_REVISION_POLL_MS);
  </script>
{{- end}}
</body>
</html>
`
