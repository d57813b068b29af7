package server

// ProbePath is where the probe page is served.
const ProbePath = "/_calctest/probe"

// ProbeItems are the items offered by every picker on the probe page, in order.
var ProbeItems = []string{
	"coal", "stone", "iron-ore", "copper-ore",
	"iron-plate", "copper-plate", "iron-gear-wheel", "electronic-circuit",
	"advanced-circuit", "plastic-bar",
}

// ProbePage is a small stand-in for the calculator. It renders the same
// element ids and nesting that the runner drives, and every production
// rate equals its factory count, so expected totals are easy to write by hand.
//
// The totals table is filled by script so rows are direct children of the
// table, as they are on the real page.
const ProbePage = `<!DOCTYPE html>
<html>
<head>
    <title>Factorio Calculator</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            margin: 20px;
        }
        img {
            display: inline-block;
            width: 32px;
            height: 32px;
            background: #ccc;
        }
        .dropdown {
            position: relative;
            display: inline-block;
            vertical-align: middle;
            width: 60px;
            height: 40px;
            padding: 0;
            border: 0;
            overflow-x: hidden;
            overflow-y: hidden;
            background: white;
        }
        .dropdown:hover {
            height: 313px;
            overflow-y: scroll;
        }
        .dropdown label {
            display: block;
            height: 40px;
        }
        .dropdown label.selected img {
            outline: 2px solid #007bff;
        }
        #targets li {
            margin: 4px 0;
        }
        .panel {
            display: none;
        }
        .panel.active {
            display: block;
        }
    </style>
</head>
<body>
    <div>Recipes loaded: <span id="display_count">0</span></div>

    <button id="totals_button">Factories</button>
    <button id="settings_button">Settings</button>

    <ul id="targets">
        <li class="target"></li>
        <li><button class="add">+</button></li>
    </ul>

    <div id="totals_tab" class="panel active">
        <table id="totals"></table>
    </div>

    <div id="settings_tab" class="panel">
        <div>Minimum assembler:
            <span id="minimum_assembler">
                <div class="dropdown">
                    <label><img alt="assembling-machine-1"></label>
                    <label><img alt="assembling-machine-2"></label>
                    <label><img alt="assembling-machine-3"></label>
                </div>
            </span>
            <span id="minimum_assembler_value">1</span>
        </div>
    </div>

    <script>
        const ITEMS = {{ITEMS}};
        const targets = document.getElementById('targets');
        const totals = document.getElementById('totals');

        function fillTarget(li) {
            li.className = 'target';
            li.innerHTML = '';
            const dd = document.createElement('div');
            dd.className = 'dropdown';
            ITEMS.forEach(function (item) {
                const label = document.createElement('label');
                const img = document.createElement('img');
                img.alt = item;
                img.addEventListener('click', function () {
                    dd.querySelectorAll('label').forEach(function (l) { l.classList.remove('selected'); });
                    label.classList.add('selected');
                    li.dataset.item = item;
                    render();
                });
                label.appendChild(img);
                dd.appendChild(label);
            });
            li.dataset.item = ITEMS[0];
            dd.firstChild.classList.add('selected');

            const factories = document.createElement('input');
            factories.type = 'text';
            factories.value = '1';
            const rate = document.createElement('input');
            rate.type = 'text';
            rate.value = '1';
            factories.addEventListener('keydown', function (e) {
                if (e.key === 'Enter') { rate.value = factories.value; render(); }
            });
            rate.addEventListener('keydown', function (e) {
                if (e.key === 'Enter') { factories.value = rate.value; render(); }
            });

            const remove = document.createElement('button');
            remove.textContent = 'x';
            remove.addEventListener('click', function () { li.remove(); render(); });

            li.appendChild(dd);
            li.appendChild(factories);
            li.appendChild(rate);
            li.appendChild(remove);
        }

        function render() {
            while (totals.firstChild) {
                totals.removeChild(totals.firstChild);
            }
            const header = document.createElement('tr');
            header.innerHTML = '<th>item</th><th>rate</th>';
            totals.appendChild(header);

            targets.querySelectorAll('li.target').forEach(function (li) {
                const value = Number(li.querySelectorAll('input')[1].value);
                if (!(value > 0)) {
                    return;
                }
                const tr = document.createElement('tr');
                const icon = document.createElement('td');
                const img = document.createElement('img');
                img.alt = li.dataset.item;
                icon.appendChild(img);
                const cell = document.createElement('td');
                const tt = document.createElement('tt');
                tt.textContent = ' ' + String(value) + ' ';
                cell.appendChild(tt);
                tr.appendChild(icon);
                tr.appendChild(cell);
                totals.appendChild(tr);
            });

            const footer = document.createElement('tr');
            footer.innerHTML = '<td></td><td>total</td>';
            totals.appendChild(footer);
        }

        document.querySelector('#targets .add').addEventListener('click', function () {
            const li = document.createElement('li');
            fillTarget(li);
            targets.insertBefore(li, targets.lastElementChild);
            setTimeout(render, 0);
        });

        document.getElementById('settings_button').addEventListener('click', function () {
            document.getElementById('settings_tab').classList.add('active');
            document.getElementById('totals_tab').classList.remove('active');
        });
        document.getElementById('totals_button').addEventListener('click', function () {
            document.getElementById('totals_tab').classList.add('active');
            document.getElementById('settings_tab').classList.remove('active');
        });
        document.querySelectorAll('#minimum_assembler img').forEach(function (img, i) {
            img.addEventListener('click', function () {
                document.getElementById('minimum_assembler_value').textContent = String(i + 1);
            });
        });

        fillTarget(targets.querySelector('li.target'));
        render();
        // Mimic the asynchronous recipe load of the real page.
        setTimeout(function () {
            document.getElementById('display_count').textContent = '1';
        }, 300);
    </script>
</body>
</html>
`
