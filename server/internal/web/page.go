package web

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>TV Show Segmentation</title>
<style>
body { font-family: Arial, sans-serif; background: #f8f9fa; margin: 40px; }
.container { max-width: 760px; background: #fff; padding: 24px; border-radius: 10px; box-shadow: 0 0 10px rgba(0,0,0,0.1); }
label { display: block; margin-top: 10px; }
input { width: 100%; padding: 8px; margin: 5px 0; border: 1px solid #ccc; border-radius: 5px; box-sizing: border-box; }
button { margin-top: 12px; background: #007bff; color: white; border: none; padding: 10px; border-radius: 5px; cursor: pointer; width: 100%; }
button:hover { background: #0056b3; }
.error { color: #b00020; margin-top: 12px; }
.hint { font-size: 0.9em; margin: 6px 0; }
.hint.warning { color: #a15c00; }
.hint.info { color: #555; }
.hint.ok { color: #2e7d32; }
iframe { width: 100%; height: 520px; border: none; margin-top: 16px; }
</style>
</head>
<body>
<div class="container">
<h2>TV Show Segmentation</h2>
<p>Enter a show's popularity and rating to see which audience segment it falls into.</p>
<form method="post" action="/">
<label for="popularity">Popularity</label>
<input id="popularity" name="popularity" type="number" step="any" min="0" value="{{.Popularity}}">
<label for="vote_average">Vote average (0-10)</label>
<input id="vote_average" name="vote_average" type="number" step="0.1" min="0" max="10" value="{{.VoteAverage}}">
<label for="vote_count">Vote count</label>
<input id="vote_count" name="vote_count" type="number" step="1" min="0" value="{{.VoteCount}}">
<button type="submit">Predict segment</button>
</form>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
{{with .Result}}
<hr>
<p>Popularity {{printf "%g" .Popularity}}, vote average {{printf "%g" .VoteAverage}}, {{.VoteCount}} votes</p>
<h3 style="color: {{.Color}}">Segment {{.Label}}: {{.Name}}</h3>
<p>{{.Description}}</p>
{{range .Hints}}<p class="hint {{.Level}}"><strong>{{.Title}}.</strong> {{.Detail}}</p>
{{end}}
<iframe src="{{.ChartURL}}" title="Position in feature space"></iframe>
{{end}}
</div>
</body>
</html>
`
