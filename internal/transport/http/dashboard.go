package httpx

const dashboardPageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Agent Execution Log</title>
  <style>
    :root {
      --bg: #0f1115;
      --card: #171a21;
      --line: #2a2f3a;
      --text: #e6e8ee;
      --muted: #8a93a6;
      --ok: #4cc38a;
      --fail: #f16a6a;
      --run: #5e9bff;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Inter", "Segoe UI", sans-serif;
    }
    main { max-width: 1080px; margin: 0 auto; padding: 24px 16px 40px; }
    h1 { font-size: 22px; margin: 0 0 4px; }
    .sub { color: var(--muted); margin: 0 0 20px; font-size: 13px; }
    .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 12px; margin-bottom: 20px; }
    .card { background: var(--card); border: 1px solid var(--line); border-radius: 10px; padding: 14px; }
    .card .label { color: var(--muted); font-size: 12px; text-transform: uppercase; letter-spacing: .04em; }
    .card .value { font-size: 24px; font-weight: 600; margin-top: 6px; }
    table { width: 100%; border-collapse: collapse; background: var(--card); border: 1px solid var(--line); border-radius: 10px; overflow: hidden; }
    th, td { text-align: left; padding: 9px 12px; border-bottom: 1px solid var(--line); font-size: 13px; }
    th { color: var(--muted); font-weight: 500; }
    td.mono { font-family: "JetBrains Mono", monospace; font-size: 12px; }
    .status-succeeded { color: var(--ok); }
    .status-failed { color: var(--fail); }
    .status-running { color: var(--run); }
    h2 { font-size: 15px; margin: 24px 0 10px; }
  </style>
</head>
<body>
<main>
  <h1>Agent Execution Log</h1>
  <p class="sub" id="updated">loading...</p>
  <section class="cards">
    <div class="card"><div class="label">Executions</div><div class="value" id="executions">-</div></div>
    <div class="card"><div class="label">Running</div><div class="value" id="running">-</div></div>
    <div class="card"><div class="label">Success rate</div><div class="value" id="success">-</div></div>
    <div class="card"><div class="label">Avg score</div><div class="value" id="score">-</div></div>
    <div class="card"><div class="label">Avg duration</div><div class="value" id="duration">-</div></div>
    <div class="card"><div class="label">Errors</div><div class="value" id="errors">-</div></div>
  </section>
  <h2>Recent executions</h2>
  <table>
    <thead><tr><th>Started</th><th>Agent</th><th>Task</th><th>Status</th><th>Duration</th><th>Score</th></tr></thead>
    <tbody id="rows"></tbody>
  </table>
  <h2>Recent errors</h2>
  <table>
    <thead><tr><th>When</th><th>Agent</th><th>Type</th><th>Message</th></tr></thead>
    <tbody id="error-rows"></tbody>
  </table>
</main>
<script>
  const text = (value) => document.createTextNode(value == null ? "" : String(value));
  const cell = (value, cls) => {
    const td = document.createElement("td");
    if (cls) td.className = cls;
    td.appendChild(text(value));
    return td;
  };
  async function refresh() {
    const [stats, executions, errors] = await Promise.all([
      fetch("/api/logging/stats").then((r) => r.json()),
      fetch("/api/logging/executions?limit=25").then((r) => r.json()),
      fetch("/api/logging/errors?limit=10").then((r) => r.json()),
    ]);
    document.getElementById("executions").textContent = stats.counts.executions;
    document.getElementById("running").textContent = stats.counts.running;
    document.getElementById("errors").textContent = stats.counts.errors;
    document.getElementById("success").textContent = (stats.success_rate * 100).toFixed(1) + "%";
    document.getElementById("score").textContent = stats.average_score.toFixed(2);
    document.getElementById("duration").textContent = Math.round(stats.average_duration_ms) + " ms";

    const rows = document.getElementById("rows");
    rows.replaceChildren();
    for (const item of executions) {
      const tr = document.createElement("tr");
      tr.append(
        cell(item.started_at, "mono"),
        cell(item.agent_name),
        cell(item.task_type),
        cell(item.status, "status-" + item.status),
        cell(item.duration_ms + " ms", "mono"),
        cell(item.performance_score.toFixed(2), "mono"),
      );
      rows.appendChild(tr);
    }

    const errorRows = document.getElementById("error-rows");
    errorRows.replaceChildren();
    for (const item of errors) {
      const tr = document.createElement("tr");
      tr.append(cell(item.created_at, "mono"), cell(item.agent_name), cell(item.error_type), cell(item.message));
      errorRows.appendChild(tr);
    }
    document.getElementById("updated").textContent = "updated " + new Date().toLocaleTimeString();
  }
  refresh().catch((err) => { document.getElementById("updated").textContent = "failed to load: " + err; });
  setInterval(() => refresh().catch(() => {}), 5000);
</script>
</body>
</html>
`
